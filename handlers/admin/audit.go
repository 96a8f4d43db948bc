package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/query"
	"github.com/sahilchouksey/admission-api/utils/response"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit-logs
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db := store.GetDB().WithContext(c.UserContext())

	page := query.Paginate(c, 20, 100)

	logs := db.Model(&model.AdminAuditLog{})
	if action := c.Query("action"); action != "" {
		logs = logs.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		logs = logs.Where("resource = ?", resource)
	}
	if adminID, ok := query.UintParam(c, "admin_id"); ok {
		logs = logs.Where("admin_id = ?", adminID)
	}

	var total int64
	if err := logs.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	entries := []model.AdminAuditLog{}
	err := logs.Offset(page.Offset()).Limit(page.Limit).Order("created_at DESC, id DESC").Find(&entries).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.SuccessWithMessage(c, "Audit logs retrieved successfully", fiber.Map{
		"logs":       entries,
		"pagination": page.Meta(total),
	})
}
