package server

import (
	"waypost/internal/middleware"
	"waypost/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/entries/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}
	limit, offset := parsePagination(c)

	comments, err := s.comments.List(c.Context(), publicID, session, limit, offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/entries/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.Add(c.Context(), publicID, req.Body, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/entries/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)

	commentID, err := c.ParamsInt("commentId")
	if err != nil || commentID < 1 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid comment ID"))
	}

	if err := s.comments.Delete(c.Context(), uint(commentID), session); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
