package server

import (
	"waypost/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Sponsor handles POST /api/sponsorships/:creatorId
func (s *Server) Sponsor(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	creatorID, err := parsePublicID(c, "creatorId")
	if err != nil {
		return respondServiceError(c, err)
	}

	sponsorship, err := s.sponsorships.Sponsor(c.Context(), session, creatorID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sponsorship)
}

// CancelSponsorship handles DELETE /api/sponsorships/:creatorId
func (s *Server) CancelSponsorship(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)
	creatorID, err := parsePublicID(c, "creatorId")
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := s.sponsorships.Cancel(c.Context(), session, creatorID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMySponsorships handles GET /api/me/sponsorships
func (s *Server) GetMySponsorships(c *fiber.Ctx) error {
	session := middleware.SessionFromLocals(c)

	sponsorships, err := s.sponsorships.List(c.Context(), session)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(sponsorships)
}
