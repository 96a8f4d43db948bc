package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/utils/middleware"
	"github.com/sahilchouksey/admission-api/utils/response"
	"github.com/sahilchouksey/admission-api/utils/validation"
)

// ProfileHandler serves the student's own profile
type ProfileHandler struct {
	profiles  *services.ProfileService
	validator *validation.Validator
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profiles,
		validator: validation.NewValidator(),
	}
}

// UpdateProfileRequest is the body of PUT /api/v1/profile
type UpdateProfileRequest struct {
	Name          string     `json:"name" validate:"omitempty,max=100"`
	UseOverallGPA bool       `json:"use_overall_gpa"`
	OverallGPA    *float64   `json:"overall_gpa" validate:"omitempty,gpa"`
	SemesterGPAs  []*float64 `json:"semester_gpas" validate:"max=5,dive,omitempty,gpa"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	user, err := h.profiles.GetProfile(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	user, err := h.profiles.UpdateGPA(c.UserContext(), userID, services.GPAUpdate{
		Name:          req.Name,
		UseOverallGPA: req.UseOverallGPA,
		OverallGPA:    req.OverallGPA,
		SemesterGPAs:  req.SemesterGPAs,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Profile updated successfully", user)
}
