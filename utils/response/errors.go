package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/services"
)

// FromError maps a service error kind to its status and short message.
// Internal details only go to the log.
func FromError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return NotFound(c, "Resource not found")
	case errors.Is(err, services.ErrMissingGPA):
		return Error(c, fiber.StatusBadRequest, "GPA must be entered before applying", "MISSING_GPA")
	case errors.Is(err, services.ErrMalformedInput):
		return ErrorWithDetails(c, fiber.StatusBadRequest, "Malformed input", "MALFORMED_INPUT", err.Error())
	case errors.Is(err, services.ErrConflict):
		return Conflict(c, "Request conflicts with current state")
	case errors.Is(err, services.ErrUnauthenticated):
		return Unauthorized(c, "")
	default:
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		return InternalServerError(c, "")
	}
}
