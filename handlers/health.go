package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/utils/response"
)

// HandleCheckHealth reports whether the API can reach its database
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
}

// ParseID reads a positive integer route parameter
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

// BadID writes the response for an unparsable route parameter
func BadID(c *fiber.Ctx, err error) error {
	return response.BadRequest(c, err.Error())
}
