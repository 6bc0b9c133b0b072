package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"waypost/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads limit/offset query params with sane bounds.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parsePublicID validates the :id path param as a UUID before it reaches the
// database.
func parsePublicID(c *fiber.Ctx, param string) (string, error) {
	id := c.Params(param)
	if _, err := uuid.Parse(id); err != nil {
		return "", models.NewValidationError("Invalid id")
	}
	return id, nil
}

// respondServiceError maps a service-layer error to its HTTP response.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}
