package services

import (
	"context"
	"sort"
	"time"

	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/gorm"
)

// RankEntry is one applicant's row in a department ranking. Applicants are
// anonymous apart from the flag marking the student who asked.
type RankEntry struct {
	Position            int     `json:"position"`
	GPA                 float64 `json:"gpa"`
	IsRequestingStudent bool    `json:"is_requesting_student"`
}

// Ranking is a read-side snapshot of a department's applicants
type Ranking struct {
	DepartmentID        uint        `json:"department_id"`
	DepartmentName      string      `json:"department_name"`
	Capacity            int         `json:"capacity"`
	CurrentApplications int         `json:"current_applications"`
	Oversubscribed      bool        `json:"oversubscribed"`
	Entries             []RankEntry `json:"entries"`
}

// applicant is the raw row a ranking is computed from
type applicant struct {
	ApplicationID uint
	StudentID     uint
	OverallGPA    *float64
	CreatedAt     time.Time
}

// RankingService computes department rankings. It never writes.
type RankingService struct {
	db *gorm.DB
}

// NewRankingService creates a new ranking service
func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{db: db}
}

// Rank orders the department's applicants by GPA, highest first. Equal GPAs keep
// submission order (earlier application ranks higher). requestingStudentID may be
// zero for anonymous callers.
func (s *RankingService) Rank(ctx context.Context, departmentID, requestingStudentID uint) (*Ranking, error) {
	return rank(s.db.WithContext(ctx), departmentID, requestingStudentID)
}

func rank(db *gorm.DB, departmentID, requestingStudentID uint) (*Ranking, error) {
	department, err := getDepartment(db, departmentID)
	if err != nil {
		return nil, err
	}

	var applicants []applicant
	err = db.Model(&model.Application{}).
		Select("applications.id AS application_id, applications.student_id, users.overall_gpa, applications.created_at").
		Joins("JOIN users ON users.id = applications.student_id").
		Where("applications.department_id = ?", departmentID).
		Order("applications.created_at ASC, applications.id ASC").
		Scan(&applicants).Error
	if err != nil {
		return nil, storeError("load applicants", err)
	}

	return &Ranking{
		DepartmentID:        department.ID,
		DepartmentName:      department.Name,
		Capacity:            department.Capacity,
		CurrentApplications: department.CurrentApplications,
		Oversubscribed:      department.IsOversubscribed(),
		Entries:             rankApplicants(applicants, requestingStudentID),
	}, nil
}

// rankApplicants expects applicants in submission order; the stable sort keeps
// that order among equal GPAs.
func rankApplicants(applicants []applicant, requestingStudentID uint) []RankEntry {
	sorted := make([]applicant, len(applicants))
	copy(sorted, applicants)

	sort.SliceStable(sorted, func(i, j int) bool {
		return gpaOf(sorted[i]) > gpaOf(sorted[j])
	})

	entries := make([]RankEntry, 0, len(sorted))
	for i, a := range sorted {
		entries = append(entries, RankEntry{
			Position:            i + 1,
			GPA:                 gpaOf(a),
			IsRequestingStudent: requestingStudentID != 0 && a.StudentID == requestingStudentID,
		})
	}
	return entries
}

func gpaOf(a applicant) float64 {
	if a.OverallGPA == nil {
		return model.GPANotProvided
	}
	return *a.OverallGPA
}
