package repository

import (
	"context"

	"waypost/internal/models"
	"waypost/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository records entry views.
type ViewRepository interface {
	// Record bumps the entry's raw view counter and inserts the dedup row.
	// It returns true when the viewer had not seen the entry before.
	Record(ctx context.Context, view *models.EntryView) (bool, error)
}

type viewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new view repository.
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

// Record deliberately runs the counter bump and the dedup insert as separate
// statements, not one transaction: the counter moves on every qualifying view,
// so a deduplicated insert must not roll it back.
func (r *viewRepository) Record(ctx context.Context, view *models.EntryView) (bool, error) {
	defer observability.TrackQuery("record", "entry_views")()
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", view.EntryID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
	if err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}, {Name: "viewer_key"}},
			DoNothing: true,
		}).
		Create(view)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
