package server

import (
	"waypost/internal/middleware"
	"waypost/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/entries/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	return s.toggle(c, models.EngagementLike)
}

// ToggleBookmark handles POST /api/entries/:id/bookmark
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	return s.toggle(c, models.EngagementBookmark)
}

func (s *Server) toggle(c *fiber.Ctx, kind models.EngagementKind) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	outcome, err := s.ledger.Toggle(c.Context(), publicID, session, kind)
	if err != nil {
		return respondServiceError(c, err)
	}

	if kind == models.EngagementBookmark {
		return c.JSON(fiber.Map{
			"bookmarked":      outcome.Created,
			"bookmarks_count": outcome.Count,
		})
	}
	return c.JSON(fiber.Map{
		"liked":       outcome.Created,
		"likes_count": outcome.Count,
	})
}
