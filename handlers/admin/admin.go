package admin

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/handlers"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/utils/middleware"
	"github.com/sahilchouksey/admission-api/utils/query"
	"github.com/sahilchouksey/admission-api/utils/response"
)

// MaxImportSize bounds an uploaded CSV
const MaxImportSize = 5 * 1024 * 1024

// AdminHandler serves admin operations backed by the admission services
type AdminHandler struct {
	allocation *services.AllocationService
	imports    *services.ImportService
	accounts   *services.AccountService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(allocation *services.AllocationService, imports *services.ImportService, accounts *services.AccountService) *AdminHandler {
	return &AdminHandler{
		allocation: allocation,
		imports:    imports,
		accounts:   accounts,
	}
}

// ImportCSV handles POST /api/v1/admin/import-csv (multipart field "csv")
func (h *AdminHandler) ImportCSV(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("csv")
	if err != nil {
		return response.BadRequest(c, "CSV file is required")
	}
	if fileHeader.Size > MaxImportSize {
		return response.BadRequest(c, "CSV file is too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read CSV file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImportSize+1))
	if err != nil {
		return response.BadRequest(c, "Failed to read CSV file")
	}

	req := services.ImportRequest{FileName: fileHeader.Filename, Data: data}
	if adminID, ok := middleware.GetUserID(c); ok {
		req.AdminID = &adminID
	}

	result, err := h.imports.ImportCSV(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, result.Message, result)
}

// ListImports handles GET /api/v1/admin/imports
func (h *AdminHandler) ListImports(c *fiber.Ctx) error {
	page := query.Paginate(c, 20, 100)

	batches, total, err := h.imports.ListBatches(c.UserContext(), page.Offset(), page.Limit)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{
		"imports":    batches,
		"pagination": page.Meta(total),
	})
}

// DeleteStudent handles DELETE /api/v1/admin/students/:id
func (h *AdminHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if adminID, ok := middleware.GetUserID(c); ok && adminID == id {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	if err := h.allocation.RemoveStudent(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student deleted successfully", nil)
}

// RevokeTokens handles POST /api/v1/admin/students/:id/revoke-tokens
func (h *AdminHandler) RevokeTokens(c *fiber.Ctx) error {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return handlers.BadID(c, err)
	}

	if err := h.accounts.RevokeTokens(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Tokens revoked", nil)
}

// Reconcile handles POST /api/v1/admin/reconcile
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.allocation.ReconcileCounters(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, report)
}
