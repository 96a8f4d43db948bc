package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records an audit entry for the admin action after the handler runs.
// Must be mounted behind RequireAdmin.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := c.Locals("admin_user").(*model.User)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		var newValue datatypes.JSON
		if (c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut) &&
			c.Is("json") && json.Valid(c.Body()) {
			newValue = datatypes.JSON(append([]byte(nil), c.Body()...))
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		auditLog := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    newValue,
			StatusCode:  status,
			IPAddress:   c.IP(),
			UserAgent:   c.Get("User-Agent"),
			Description: c.Method() + " " + c.Path(),
		}
		if dbErr := db.Create(&auditLog).Error; dbErr != nil {
			log.Warnf("failed to write admin audit log: %v", dbErr)
		}

		return err
	}
}
