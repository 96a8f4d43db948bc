package university

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/handlers"
	"github.com/sahilchouksey/admission-api/utils/response"
	"github.com/sahilchouksey/admission-api/utils/validation"
)

// CollegeRequest is the body for creating a college
type CollegeRequest struct {
	UniversityID uint   `json:"university_id" validate:"required"`
	Name         string `json:"name" validate:"required,min=1,max=255"`
}

// DepartmentRequest is the body for creating a department
type DepartmentRequest struct {
	CollegeID uint   `json:"college_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Capacity  int    `json:"capacity" validate:"required,gte=1"`
}

// CapacityRequest is the body for changing a department's capacity
type CapacityRequest struct {
	Capacity int `json:"capacity" validate:"required,gte=1"`
}

// CreateCollege handles POST /api/v1/admin/colleges
func (h *UniversityHandler) CreateCollege(c *fiber.Ctx) error {
	var req CollegeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	college, err := h.hierarchy.CreateCollege(c.UserContext(), req.UniversityID, req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, college)
}

// DeleteCollege handles DELETE /api/v1/admin/colleges/:id
func (h *UniversityHandler) DeleteCollege(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if err := h.hierarchy.DeleteCollege(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "College deleted successfully", nil)
}

// ListDepartments handles GET /api/v1/colleges/:id/departments
func (h *UniversityHandler) ListDepartments(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	departments, err := h.hierarchy.DepartmentsOf(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, departments)
}

// CreateDepartment handles POST /api/v1/admin/departments
func (h *UniversityHandler) CreateDepartment(c *fiber.Ctx) error {
	var req DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Name = validation.SanitizeString(req.Name)
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	department, err := h.hierarchy.CreateDepartment(c.UserContext(), req.CollegeID, req.Name, req.Capacity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, department)
}

// UpdateDepartment handles PUT /api/v1/admin/departments/:id. Only capacity is editable;
// the application counter belongs to the allocation engine.
func (h *UniversityHandler) UpdateDepartment(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	var req CapacityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	department, err := h.hierarchy.UpdateDepartmentCapacity(c.UserContext(), id, req.Capacity)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Department updated successfully", department)
}

// DeleteDepartment handles DELETE /api/v1/admin/departments/:id
func (h *UniversityHandler) DeleteDepartment(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if err := h.hierarchy.DeleteDepartment(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Department deleted successfully", nil)
}
