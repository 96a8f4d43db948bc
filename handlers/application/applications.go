package application

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/handlers"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/utils/middleware"
	"github.com/sahilchouksey/admission-api/utils/response"
	"github.com/sahilchouksey/admission-api/utils/validation"
)

// ApplicationHandler exposes submit, withdraw and ranking
type ApplicationHandler struct {
	allocation *services.AllocationService
	validator  *validation.Validator
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(allocation *services.AllocationService) *ApplicationHandler {
	return &ApplicationHandler{
		allocation: allocation,
		validator:  validation.NewValidator(),
	}
}

// SubmitRequest is the body of POST /api/v1/applications
type SubmitRequest struct {
	DepartmentID uint `json:"department_id" validate:"required"`
}

// Submit handles POST /api/v1/applications
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	result, err := h.allocation.Submit(c.UserContext(), studentID, req.DepartmentID)
	if err != nil {
		return response.FromError(c, err)
	}

	switch {
	case result.Unchanged:
		return response.SuccessWithMessage(c, "Already applied to this department", result)
	case result.Replaced:
		return response.SuccessWithMessage(c, "Application moved to the new department", result)
	default:
		return c.Status(fiber.StatusCreated).JSON(response.Response{
			Success: true,
			Message: "Application submitted",
			Data:    result,
		})
	}
}

// Withdraw handles DELETE /api/v1/applications/:department_id
func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	departmentID, err := handlers.ParseID(c, "department_id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if err := h.allocation.Withdraw(c.UserContext(), studentID, departmentID); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Application withdrawn", nil)
}

// ListMine handles GET /api/v1/applications/me
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	applications, err := h.allocation.ListForStudent(c.UserContext(), studentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, applications)
}

// Ranking handles GET /api/v1/departments/:id/ranking. Anonymous callers get the
// same ranking with no entry flagged.
func (h *ApplicationHandler) Ranking(c *fiber.Ctx) error {
	departmentID, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	studentID, _ := middleware.GetUserID(c)
	ranking, err := h.allocation.ListForDepartment(c.UserContext(), departmentID, studentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, ranking)
}
