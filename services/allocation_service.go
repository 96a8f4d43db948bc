package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationService owns the rule that a student holds at most one application
// per university, and is the only writer of Department.CurrentApplications.
type AllocationService struct {
	db      *gorm.DB
	ranking *RankingService
	locker  cache.Locker
}

// NewAllocationService creates a new allocation service. locker may be nil, in which
// case the per-student row lock taken inside each transaction is the only serialisation.
func NewAllocationService(db *gorm.DB, ranking *RankingService, locker cache.Locker) *AllocationService {
	return &AllocationService{
		db:      db,
		ranking: ranking,
		locker:  locker,
	}
}

// SubmitResult is returned by Submit
type SubmitResult struct {
	Application          *model.Application `json:"application"`
	Replaced             bool               `json:"replaced"`
	ReplacedDepartmentID uint               `json:"replaced_department_id,omitempty"`
	Unchanged            bool               `json:"unchanged"`
	Ranking              *Ranking           `json:"ranking"`
}

// StudentApplication describes one of a student's active applications
type StudentApplication struct {
	ApplicationID  uint   `json:"application_id"`
	DepartmentID   uint   `json:"department_id"`
	DepartmentName string `json:"department_name"`
	CollegeID      uint   `json:"college_id"`
	CollegeName    string `json:"college_name"`
	UniversityID   uint   `json:"university_id"`
	UniversityName string `json:"university_name"`
}

// CounterDrift is a department whose stored counter disagreed with its applications
type CounterDrift struct {
	DepartmentID uint `json:"department_id"`
	Stored       int  `json:"stored"`
	Actual       int  `json:"actual"`
}

// ReconcileReport summarises a counter reconciliation run
type ReconcileReport struct {
	Checked  int            `json:"checked"`
	Repaired []CounterDrift `json:"repaired"`
}

func studentLockKey(studentID uint) string {
	return fmt.Sprintf("admission:lock:student:%d", studentID)
}

// lockStudent takes the cross-process lock when one is configured. A broken lock
// backend is logged and skipped; the database row lock still guards correctness.
func (s *AllocationService) lockStudent(ctx context.Context, studentID uint) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	release, err := s.locker.Acquire(ctx, studentLockKey(studentID))
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, cache.ErrLockTimeout):
		return nil, fmt.Errorf("another submission for student %d is in progress: %w", studentID, ErrConflict)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.Warnf("student lock unavailable, relying on row lock: %v", err)
		return func() {}, nil
	}
}

// lockStudentRow loads the student with a row lock held until the transaction ends.
// Every write touching a student's applications goes through here first.
func lockStudentRow(tx *gorm.DB, studentID uint) (*model.User, error) {
	var student model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&student, studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("student", studentID)
		}
		return nil, storeError("lock student", err)
	}
	return &student, nil
}

// adjustCounters applies counter deltas in ascending department order so
// concurrent transactions always lock department rows in the same order.
func adjustCounters(tx *gorm.DB, deltas map[uint]int) error {
	ids := make([]uint, 0, len(deltas))
	for id, delta := range deltas {
		if delta != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		delta := deltas[id]
		query := tx.Model(&model.Department{}).Where("id = ?", id)
		if delta < 0 {
			query = query.Where("current_applications >= ?", -delta)
		}
		result := query.UpdateColumn("current_applications", gorm.Expr("current_applications + ?", delta))
		if result.Error != nil {
			return storeError("update application counter", result.Error)
		}
		if result.RowsAffected == 0 {
			// Counter already disagrees with the application rows; leave it for
			// ReconcileCounters rather than letting it go negative.
			log.Warnf("application counter for department %d could not apply delta %d", id, delta)
		}
	}
	return nil
}

// Submit registers the student's application to departmentID. An existing application
// to another department of the same university is replaced in the same transaction.
// Applications in other universities are not touched.
func (s *AllocationService) Submit(ctx context.Context, studentID, departmentID uint) (*SubmitResult, error) {
	release, err := s.lockStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result SubmitResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := lockStudentRow(tx, studentID)
		if err != nil {
			return err
		}
		if !student.HasGPA() {
			return fmt.Errorf("student %d: %w", studentID, ErrMissingGPA)
		}

		universityID, err := universityOfDepartment(tx, departmentID)
		if err != nil {
			return err
		}

		var existing []model.Application
		err = tx.Where("student_id = ? AND university_id = ?", studentID, universityID).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return storeError("find existing application", err)
		}

		deltas := map[uint]int{}
		if len(existing) > 0 {
			current := existing[0]
			if current.DepartmentID == departmentID {
				result.Application = &current
				result.Unchanged = true
				result.Ranking, err = rank(tx, departmentID, studentID)
				return err
			}

			if err := tx.Delete(&current).Error; err != nil {
				return storeError("delete previous application", err)
			}
			deltas[current.DepartmentID]--
			result.Replaced = true
			result.ReplacedDepartmentID = current.DepartmentID
		}

		application := model.Application{
			StudentID:    studentID,
			UniversityID: universityID,
			DepartmentID: departmentID,
		}
		if err := tx.Create(&application).Error; err != nil {
			return storeError("create application", err)
		}
		deltas[departmentID]++

		if err := adjustCounters(tx, deltas); err != nil {
			return err
		}

		result.Application = &application
		result.Ranking, err = rank(tx, departmentID, studentID)
		return err
	})
	if err != nil {
		submissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	switch {
	case result.Unchanged:
		submissionsTotal.WithLabelValues("unchanged").Inc()
	case result.Replaced:
		submissionsTotal.WithLabelValues("switched").Inc()
		log.Infof("student %d moved application from department %d to %d", studentID, result.ReplacedDepartmentID, departmentID)
	default:
		submissionsTotal.WithLabelValues("created").Inc()
	}

	return &result, nil
}

// Withdraw deletes the student's application to departmentID. ErrNotFound means
// there was nothing to withdraw, which a retrying caller can treat as done.
func (s *AllocationService) Withdraw(ctx context.Context, studentID, departmentID uint) error {
	release, err := s.lockStudent(ctx, studentID)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockStudentRow(tx, studentID); err != nil {
			return err
		}

		var applications []model.Application
		err := tx.Where("student_id = ? AND department_id = ?", studentID, departmentID).
			Limit(1).
			Find(&applications).Error
		if err != nil {
			return storeError("find application", err)
		}
		if len(applications) == 0 {
			return fmt.Errorf("application of student %d to department %d: %w", studentID, departmentID, ErrNotFound)
		}

		if err := tx.Delete(&applications[0]).Error; err != nil {
			return storeError("delete application", err)
		}
		return adjustCounters(tx, map[uint]int{departmentID: -1})
	})
	if err != nil {
		return err
	}

	withdrawalsTotal.Inc()
	return nil
}

// ListForDepartment returns the department's current ranking
func (s *AllocationService) ListForDepartment(ctx context.Context, departmentID, requestingStudentID uint) (*Ranking, error) {
	return s.ranking.Rank(ctx, departmentID, requestingStudentID)
}

// ListForStudent returns the student's active applications, one per university at most
func (s *AllocationService) ListForStudent(ctx context.Context, studentID uint) ([]StudentApplication, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.User{}).Where("id = ?", studentID).Count(&count).Error; err != nil {
		return nil, storeError("get student", err)
	}
	if count == 0 {
		return nil, notFound("student", studentID)
	}

	applications := []StudentApplication{}
	err := db.Model(&model.Application{}).
		Select(`applications.id AS application_id,
			departments.id AS department_id, departments.name AS department_name,
			colleges.id AS college_id, colleges.name AS college_name,
			universities.id AS university_id, universities.name AS university_name`).
		Joins("JOIN departments ON departments.id = applications.department_id").
		Joins("JOIN colleges ON colleges.id = departments.college_id").
		Joins("JOIN universities ON universities.id = colleges.university_id").
		Where("applications.student_id = ?", studentID).
		Order("universities.id ASC").
		Scan(&applications).Error
	if err != nil {
		return nil, storeError("list student applications", err)
	}
	return applications, nil
}

// RemoveStudent deletes a student and their applications, decrementing each
// affected department counter in the same transaction.
func (s *AllocationService) RemoveStudent(ctx context.Context, studentID uint) error {
	return s.replaceStudent(ctx, studentID, nil)
}

// replaceStudent removes the student and then runs next, if set, in the same
// transaction. An error from next rolls the removal back.
func (s *AllocationService) replaceStudent(ctx context.Context, studentID uint, next func(tx *gorm.DB) error) error {
	release, err := s.lockStudent(ctx, studentID)
	if err != nil {
		return err
	}
	defer release()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := lockStudentRow(tx, studentID)
		if err != nil {
			return err
		}

		var applications []model.Application
		if err := tx.Where("student_id = ?", studentID).Find(&applications).Error; err != nil {
			return storeError("list applications", err)
		}

		deltas := map[uint]int{}
		for _, a := range applications {
			deltas[a.DepartmentID]--
		}

		if err := tx.Where("student_id = ?", studentID).Delete(&model.Application{}).Error; err != nil {
			return storeError("delete applications", err)
		}
		if err := adjustCounters(tx, deltas); err != nil {
			return err
		}
		if err := tx.Delete(student).Error; err != nil {
			return storeError("delete student", err)
		}

		if next != nil {
			if err := next(tx); err != nil {
				return err
			}
		}

		log.Infof("removed student %d and %d application(s)", studentID, len(applications))
		return nil
	})
}

// ReconcileCounters recounts applications per department and overwrites any
// counter that drifted. Department rows are locked in ID order, matching Submit.
func (s *AllocationService) ReconcileCounters(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Repaired: []CounterDrift{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var departments []model.Department
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "current_applications").
			Order("id ASC").
			Find(&departments).Error
		if err != nil {
			return storeError("lock departments", err)
		}

		var counts []struct {
			DepartmentID uint
			Total        int
		}
		err = tx.Model(&model.Application{}).
			Select("department_id, COUNT(*) AS total").
			Group("department_id").
			Scan(&counts).Error
		if err != nil {
			return storeError("count applications", err)
		}

		actual := make(map[uint]int, len(counts))
		for _, c := range counts {
			actual[c.DepartmentID] = c.Total
		}

		report.Checked = len(departments)
		for _, d := range departments {
			if d.CurrentApplications == actual[d.ID] {
				continue
			}
			err := tx.Model(&model.Department{}).
				Where("id = ?", d.ID).
				UpdateColumn("current_applications", actual[d.ID]).Error
			if err != nil {
				return storeError("repair application counter", err)
			}
			report.Repaired = append(report.Repaired, CounterDrift{
				DepartmentID: d.ID,
				Stored:       d.CurrentApplications,
				Actual:       actual[d.ID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(report.Repaired) > 0 {
		counterRepairsTotal.Add(float64(len(report.Repaired)))
		log.Warnf("repaired %d department application counter(s)", len(report.Repaired))
	}
	return report, nil
}
