package server

import (
	"errors"

	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/repository"
	"waypost/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetEntries handles GET /api/entries
func (s *Server) GetEntries(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	limit, offset := parsePagination(c)

	filter := repository.EntryFilter{Limit: limit, Offset: offset}
	if author := c.Query("author"); author != "" {
		explorer, err := s.explorerRepo.GetByUsername(c.Context(), author)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return respondServiceError(c, models.NewNotFoundError("Explorer"))
			}
			return respondServiceError(c, models.NewInternalError(err))
		}
		filter.AuthorID = explorer.ID
	}
	if expeditionID := c.Query("expedition_id"); expeditionID != "" {
		expedition, err := s.expeditions.Get(c.Context(), expeditionID)
		if err != nil {
			return respondServiceError(c, err)
		}
		filter.ExpeditionID = expedition.ID
	}

	result, err := s.entries.List(c.Context(), filter, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetEntry handles GET /api/entries/:id
func (s *Server) GetEntry(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	entry, err := s.entries.Get(c.Context(), publicID, session, c.IP())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entry)
}

// CreateEntry handles POST /api/entries
func (s *Server) CreateEntry(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)

	var req service.EntryInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.entries.Create(c.Context(), req, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// UpdateEntry handles PUT /api/entries/:id
func (s *Server) UpdateEntry(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req service.EntryInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	entry, err := s.entries.Update(c.Context(), publicID, req, session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entry)
}

// DeleteEntry handles DELETE /api/entries/:id
func (s *Server) DeleteEntry(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	publicID, err := parsePublicID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := s.entries.Delete(c.Context(), publicID, session); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetBookmarkedEntries handles GET /api/me/bookmarks
func (s *Server) GetBookmarkedEntries(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	limit, offset := parsePagination(c)

	result, err := s.entries.ListBookmarked(c.Context(), session, limit, offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
