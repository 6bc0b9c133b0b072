package server

import (
	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateExpedition handles POST /api/expeditions
func (s *Server) CreateExpedition(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)

	var req service.ExpeditionInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	expedition, err := s.expeditions.Create(c.Context(), req, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(expedition)
}

// GetExpedition handles GET /api/expeditions/:id
func (s *Server) GetExpedition(c *fiber.Ctx) error {
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	expedition, err := s.expeditions.Get(c.Context(), publicID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(expedition)
}

// GetMyExpeditions handles GET /api/expeditions (authenticated)
func (s *Server) GetMyExpeditions(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	limit, offset := parsePagination(c)

	expeditions, err := s.expeditions.ListByAuthor(c.Context(), session.ExplorerID, limit, offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(expeditions)
}

// UpdateExpedition handles PUT /api/expeditions/:id
func (s *Server) UpdateExpedition(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req service.ExpeditionInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	expedition, err := s.expeditions.Update(c.Context(), publicID, req, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(expedition)
}

// DeleteExpedition handles DELETE /api/expeditions/:id
func (s *Server) DeleteExpedition(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := s.expeditions.Delete(c.Context(), publicID, session); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
