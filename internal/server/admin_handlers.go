package server

import (
	"errors"

	"waypost/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetExplorerAccount handles GET /api/admin/explorers/:username
func (s *Server) GetExplorerAccount(c *fiber.Ctx) error {
	explorer, err := s.explorerRepo.GetByUsername(c.Context(), c.Params("username"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondServiceError(c, models.NewNotFoundError("Explorer"))
		}
		return respondServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(explorer)
}
