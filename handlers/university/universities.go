package university

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/handlers"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/utils/response"
	"github.com/sahilchouksey/admission-api/utils/validation"
)

// UniversityHandler handles the university/college/department hierarchy
type UniversityHandler struct {
	hierarchy *services.HierarchyService
	validator *validation.Validator
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(hierarchy *services.HierarchyService) *UniversityHandler {
	return &UniversityHandler{
		hierarchy: hierarchy,
		validator: validation.NewValidator(),
	}
}

// UniversityRequest is the body for creating or renaming a university
type UniversityRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	universities, err := h.hierarchy.ListUniversities(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, universities)
}

// GetUniversity handles GET /api/v1/universities/:id
func (h *UniversityHandler) GetUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	university, err := h.hierarchy.GetUniversity(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, university)
}

// CreateUniversity handles POST /api/v1/admin/universities
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	university, err := h.hierarchy.CreateUniversity(c.UserContext(), req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, university)
}

// UpdateUniversity handles PUT /api/v1/admin/universities/:id
func (h *UniversityHandler) UpdateUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	var req UniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	university, err := h.hierarchy.RenameUniversity(c.UserContext(), id, req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "University updated successfully", university)
}

// DeleteUniversity handles DELETE /api/v1/admin/universities/:id.
// Colleges, departments and applications go with it.
func (h *UniversityHandler) DeleteUniversity(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if err := h.hierarchy.DeleteUniversity(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "University deleted successfully", nil)
}
