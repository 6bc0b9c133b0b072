package server

import (
	"errors"

	"waypost/internal/models"
	"waypost/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.auth.Signup(c.Context(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.auth.Login(c.Context(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// Refresh handles POST /api/auth/refresh
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.auth.Logout(c.Context(), req.RefreshToken); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	explorerID := c.Locals("explorerID").(uint)

	explorer, err := s.explorerRepo.GetByID(c.Context(), explorerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondServiceError(c, models.NewNotFoundError("Explorer"))
		}
		return respondServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(explorer)
}
