package model

import (
	"time"
)

// University represents an institution students can apply to
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Colleges []College `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"colleges,omitempty"`
}

// College groups departments inside a university. Names are unique per university.
type College struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;uniqueIndex:idx_college_university_name" json:"university_id"`
	Name         string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_college_university_name" json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	University  *University  `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"university,omitempty"`
	Departments []Department `gorm:"foreignKey:CollegeID;constraint:OnDelete:CASCADE" json:"departments,omitempty"`
}

// Department is the unit a student applies to.
// CurrentApplications mirrors the number of Application rows pointing here and is
// only changed together with those rows.
type Department struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CollegeID           uint      `gorm:"not null;uniqueIndex:idx_department_college_name" json:"college_id"`
	Name                string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_department_college_name" json:"name"`
	Capacity            int       `gorm:"not null;default:1" json:"capacity"`
	CurrentApplications int       `gorm:"not null;default:0" json:"current_applications"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Relationships
	College      *College      `gorm:"foreignKey:CollegeID;constraint:OnDelete:CASCADE" json:"college,omitempty"`
	Applications []Application `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOversubscribed reports whether more students applied than there are seats.
// Capacity is advisory; nothing blocks applications past it.
func (d Department) IsOversubscribed() bool {
	return d.CurrentApplications > d.Capacity
}
