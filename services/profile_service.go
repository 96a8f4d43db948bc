package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/gorm"
)

// ProfileService manages the student's name and GPA
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GPAUpdate is either an overall GPA or up to five semester GPAs (1-1, 1-2, 2-1, 2-2, 3-1).
// A nil or zero semester entry counts as not provided.
type GPAUpdate struct {
	Name          string     `json:"name"`
	UseOverallGPA bool       `json:"use_overall_gpa"`
	OverallGPA    *float64   `json:"overall_gpa"`
	SemesterGPAs  []*float64 `json:"semester_gpas"`
}

// GetProfile returns the user record
func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, storeError("get profile", err)
	}
	return &user, nil
}

// UpdateGPA stores the GPA. With the overall form every semester component is reset;
// with the semester form the overall GPA becomes the mean of the provided components,
// or -1 when none are provided.
func (s *ProfileService) UpdateGPA(ctx context.Context, userID uint, req GPAUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}

	if req.UseOverallGPA {
		if req.OverallGPA == nil {
			return nil, fmt.Errorf("overall gpa is required: %w", ErrMalformedInput)
		}
		if err := checkGPA(*req.OverallGPA); err != nil {
			return nil, err
		}
		updates["overall_gpa"] = *req.OverallGPA
		for _, column := range semesterColumns {
			updates[column] = model.GPANotProvided
		}
	} else {
		if len(req.SemesterGPAs) > len(semesterColumns) {
			return nil, fmt.Errorf("at most %d semester gpas: %w", len(semesterColumns), ErrMalformedInput)
		}

		components := make([]float64, len(semesterColumns))
		for i := range components {
			components[i] = model.GPANotProvided
			if i < len(req.SemesterGPAs) && req.SemesterGPAs[i] != nil && *req.SemesterGPAs[i] != 0 {
				if err := checkGPA(*req.SemesterGPAs[i]); err != nil {
					return nil, err
				}
				components[i] = *req.SemesterGPAs[i]
			}
			updates[semesterColumns[i]] = components[i]
		}
		updates["overall_gpa"] = AggregateGPA(components)
	}

	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, storeError("update gpa", err)
	}

	return s.GetProfile(ctx, userID)
}

var semesterColumns = []string{"gpa_1_1", "gpa_1_2", "gpa_2_1", "gpa_2_2", "gpa_3_1"}

// AggregateGPA averages the components that were provided
func AggregateGPA(components []float64) float64 {
	sum, n := 0.0, 0
	for _, gpa := range components {
		if gpa > model.GPANotProvided {
			sum += gpa
			n++
		}
	}
	if n == 0 {
		return model.GPANotProvided
	}
	return sum / float64(n)
}

func checkGPA(gpa float64) error {
	if gpa < 0 || gpa > model.MaxGPA {
		return fmt.Errorf("gpa %.2f outside 0..%.1f: %w", gpa, model.MaxGPA, ErrMalformedInput)
	}
	return nil
}
