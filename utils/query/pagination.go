package query

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination is a page/limit pair read from the query string
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Paginate reads ?page= and ?limit=. Out of range values fall back to page 1
// and defaultLimit.
func Paginate(c *fiber.Ctx, defaultLimit, maxLimit int) Pagination {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the page for a response body
func (p Pagination) Meta(total int64) fiber.Map {
	return fiber.Map{
		"page":        p.Page,
		"limit":       p.Limit,
		"total":       total,
		"total_pages": (total + int64(p.Limit) - 1) / int64(p.Limit),
	}
}

// UintParam parses an optional unsigned query parameter
func UintParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
