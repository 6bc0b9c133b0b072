package service

import (
	"context"
	"errors"
	"time"

	"waypost/internal/models"
	"waypost/internal/repository"

	"gorm.io/gorm"
)

// defaultSponsorshipTerm is the access window granted per sponsorship period.
// Renewal and payment collection live with the external payment collaborator;
// this service only records the resulting state.
const defaultSponsorshipTerm = 30 * 24 * time.Hour

// SponsorshipService manages the sponsor-side lifecycle of sponsorships.
type SponsorshipService struct {
	sponsorships repository.SponsorshipRepository
	explorers    repository.ExplorerRepository
	now          func() time.Time
}

// NewSponsorshipService creates a new sponsorship service.
func NewSponsorshipService(sponsorships repository.SponsorshipRepository, explorers repository.ExplorerRepository) *SponsorshipService {
	return &SponsorshipService{
		sponsorships: sponsorships,
		explorers:    explorers,
		now:          time.Now,
	}
}

// Sponsor starts or renews a sponsorship of the creator by the session
// explorer. Renewing reuses the existing row and refreshes its expiry.
func (s *SponsorshipService) Sponsor(ctx context.Context, sponsor models.Session, creatorPublicID string) (*models.Sponsorship, error) {
	if !sponsor.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}

	creator, err := s.explorers.GetByPublicID(ctx, creatorPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Explorer")
		}
		return nil, models.NewInternalError(err)
	}
	if creator.ID == sponsor.ExplorerID {
		return nil, models.NewValidationError("you cannot sponsor yourself")
	}
	if creator.Role != models.RoleCreator && creator.Role != models.RoleAdmin {
		return nil, models.NewValidationError("this explorer does not publish sponsored content")
	}

	sponsorship := &models.Sponsorship{
		SponsorID:           sponsor.ExplorerID,
		SponsoredExplorerID: creator.ID,
		Status:              models.SponsorshipStatusActive,
		ExpiresAt:           s.now().Add(defaultSponsorshipTerm),
	}
	if err := s.sponsorships.Upsert(ctx, sponsorship); err != nil {
		return nil, models.NewInternalError(err)
	}
	sponsorship.SponsoredExplorer = creator
	return sponsorship, nil
}

// Cancel ends the session explorer's sponsorship of the creator. Access is
// revoked immediately rather than at the end of the paid period.
func (s *SponsorshipService) Cancel(ctx context.Context, sponsor models.Session, creatorPublicID string) error {
	if !sponsor.Authenticated() {
		return models.NewUnauthorizedError("authentication required")
	}
	creator, err := s.explorers.GetByPublicID(ctx, creatorPublicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Sponsorship")
		}
		return models.NewInternalError(err)
	}
	if err := s.sponsorships.Cancel(ctx, sponsor.ExplorerID, creator.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Sponsorship")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// List returns the session explorer's sponsorships, newest first.
func (s *SponsorshipService) List(ctx context.Context, sponsor models.Session) ([]*models.Sponsorship, error) {
	if !sponsor.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	sponsorships, err := s.sponsorships.ListBySponsor(ctx, sponsor.ExplorerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return sponsorships, nil
}
