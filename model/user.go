package model

import (
	"time"
)

// GPANotProvided marks a semester GPA component (or the aggregate) that was never entered.
const GPANotProvided = -1.0

// MaxGPA is the top of the grading scale
const MaxGPA = 4.5

// User is the identity record a student (or admin) is resolved to
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string    `gorm:"not null" json:"name"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	TokenVersion int       `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// GPA. OverallGPA is NULL until the student fills in their profile.
	OverallGPA *float64 `gorm:"column:overall_gpa" json:"overall_gpa"`
	GPA11      float64  `gorm:"column:gpa_1_1;default:-1" json:"gpa_1_1"`
	GPA12      float64  `gorm:"column:gpa_1_2;default:-1" json:"gpa_1_2"`
	GPA21      float64  `gorm:"column:gpa_2_1;default:-1" json:"gpa_2_1"`
	GPA22      float64  `gorm:"column:gpa_2_2;default:-1" json:"gpa_2_2"`
	GPA31      float64  `gorm:"column:gpa_3_1;default:-1" json:"gpa_3_1"`

	// Relationships
	Applications  []Application   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	AdminAuditLog []AdminAuditLog `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasGPA reports whether the student has a usable GPA on file
func (u *User) HasGPA() bool {
	return u.OverallGPA != nil && *u.OverallGPA > GPANotProvided
}

// SemesterGPAs returns the five semester components in order 1-1, 1-2, 2-1, 2-2, 3-1
func (u *User) SemesterGPAs() []float64 {
	return []float64{u.GPA11, u.GPA12, u.GPA21, u.GPA22, u.GPA31}
}
