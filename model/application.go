package model

import "time"

// Application records one student's intent to enroll in one department.
// UniversityID is copied from the department at creation so the
// one-application-per-university rule can be a unique index.
type Application struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_application_student_university;uniqueIndex:idx_application_student_department" json:"student_id"`
	UniversityID uint      `gorm:"not null;index;uniqueIndex:idx_application_student_university" json:"university_id"`
	DepartmentID uint      `gorm:"not null;index;uniqueIndex:idx_application_student_department" json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Student    *User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
}
