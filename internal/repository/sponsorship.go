package repository

import (
	"context"
	"time"

	"waypost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SponsorshipRepository resolves paid-access relationships.
type SponsorshipRepository interface {
	HasActiveSponsorship(ctx context.Context, sponsorID, creatorID uint, now time.Time) (bool, error)
	// ActiveSponsoredCreatorIDs resolves, in one query, which of the given
	// creators the sponsor has a qualifying sponsorship with. Lists use this
	// instead of one lookup per entry.
	ActiveSponsoredCreatorIDs(ctx context.Context, sponsorID uint, creatorIDs []uint, now time.Time) (map[uint]bool, error)
	Upsert(ctx context.Context, sponsorship *models.Sponsorship) error
	Cancel(ctx context.Context, sponsorID, creatorID uint) error
	ListBySponsor(ctx context.Context, sponsorID uint) ([]*models.Sponsorship, error)
}

type sponsorshipRepository struct {
	db *gorm.DB
}

// NewSponsorshipRepository creates a new sponsorship repository.
func NewSponsorshipRepository(db *gorm.DB) SponsorshipRepository {
	return &sponsorshipRepository{db: db}
}

func qualifying(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND expires_at > ?", models.SponsorshipStatusActive, now)
	}
}

func (r *sponsorshipRepository) HasActiveSponsorship(ctx context.Context, sponsorID, creatorID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Sponsorship{}).
		Scopes(qualifying(now)).
		Where("sponsor_id = ? AND sponsored_explorer_id = ?", sponsorID, creatorID).
		Count(&count).Error
	return count > 0, err
}

func (r *sponsorshipRepository) ActiveSponsoredCreatorIDs(ctx context.Context, sponsorID uint, creatorIDs []uint, now time.Time) (map[uint]bool, error) {
	sponsored := make(map[uint]bool, len(creatorIDs))
	if len(creatorIDs) == 0 {
		return sponsored, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Sponsorship{}).
		Scopes(qualifying(now)).
		Where("sponsor_id = ? AND sponsored_explorer_id IN ?", sponsorID, creatorIDs).
		Pluck("sponsored_explorer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		sponsored[id] = true
	}
	return sponsored, nil
}

// Upsert creates the sponsorship or, when the (sponsor, creator) pair already
// has a row, refreshes its status and expiry. Renewals after cancellation
// reuse the same row rather than accumulating duplicates.
func (r *sponsorshipRepository) Upsert(ctx context.Context, sponsorship *models.Sponsorship) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sponsor_id"}, {Name: "sponsored_explorer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "expires_at", "updated_at", "deleted_at",
			}),
		}).
		Create(sponsorship).Error
}

func (r *sponsorshipRepository) Cancel(ctx context.Context, sponsorID, creatorID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Sponsorship{}).
		Where("sponsor_id = ? AND sponsored_explorer_id = ?", sponsorID, creatorID).
		Update("status", models.SponsorshipStatusCanceled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sponsorshipRepository) ListBySponsor(ctx context.Context, sponsorID uint) ([]*models.Sponsorship, error) {
	var sponsorships []*models.Sponsorship
	err := r.db.WithContext(ctx).
		Preload("SponsoredExplorer").
		Where("sponsor_id = ?", sponsorID).
		Order("created_at DESC").
		Find(&sponsorships).Error
	if err != nil {
		return nil, err
	}
	return sponsorships, nil
}
