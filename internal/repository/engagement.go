package repository

import (
	"context"
	"errors"

	"waypost/internal/cache"
	"waypost/internal/models"
	"waypost/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrToggleConflict is returned when a toggle's insert hit the unique
// (entry_id, explorer_id) constraint because a concurrent toggle for the
// same pair committed first. The ledger retries the whole toggle once.
var ErrToggleConflict = errors.New("engagement toggle lost a concurrent race")

// ToggleResult describes the outcome of a committed toggle.
type ToggleResult struct {
	// Count is the entry's post-transaction counter for the toggled kind.
	Count int
	// Created is true when the toggle created the relation row, false when
	// it removed one.
	Created bool
	// EntryPublicID is carried for cache invalidation and event payloads.
	EntryPublicID string
	// AuthorID is the entry's author, used for the like notification.
	AuthorID uint
}

// EngagementRepository performs the race-free like/bookmark toggle.
type EngagementRepository interface {
	Toggle(ctx context.Context, entryID, explorerID uint, kind models.EngagementKind) (ToggleResult, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// Toggle atomically flips the relation row for (entryID, explorerID) and
// moves the entry's denormalized counter in the same transaction.
//
// The delete-else-insert shape serializes per (entry, explorer) pair without
// locking the entry row, so toggles on different pairs never block each
// other. The relation table's unique constraint is the backstop: a genuine
// race surfaces as ErrToggleConflict instead of silent corruption.
func (r *engagementRepository) Toggle(ctx context.Context, entryID, explorerID uint, kind models.EngagementKind) (ToggleResult, error) {
	table := "likes"
	if kind == models.EngagementBookmark {
		table = "bookmarks"
	}
	defer observability.TrackQuery("toggle", table)()
	var result ToggleResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := r.deleteRelation(tx, entryID, explorerID, kind)
		if err != nil {
			return err
		}

		if removed {
			result.Created = false
			if err := r.moveEntryCounter(tx, entryID, kind, -1); err != nil {
				return err
			}
			if kind == models.EngagementBookmark {
				if err := r.moveExplorerBookmarks(tx, explorerID, -1); err != nil {
					return err
				}
			}
		} else {
			inserted, err := r.insertRelation(tx, entryID, explorerID, kind)
			if err != nil {
				return err
			}
			if !inserted {
				// The row appeared between our delete and insert: a
				// concurrent toggle for the same pair won the race.
				return ErrToggleConflict
			}
			result.Created = true
			if err := r.moveEntryCounter(tx, entryID, kind, +1); err != nil {
				return err
			}
			if kind == models.EngagementBookmark {
				if err := r.moveExplorerBookmarks(tx, explorerID, +1); err != nil {
					return err
				}
			}
		}

		return r.readBack(tx, entryID, kind, &result)
	})
	if err != nil {
		return ToggleResult{}, err
	}

	cache.InvalidateEntry(ctx, result.EntryPublicID)
	return result, nil
}

func (r *engagementRepository) deleteRelation(tx *gorm.DB, entryID, explorerID uint, kind models.EngagementKind) (bool, error) {
	var res *gorm.DB
	switch kind {
	case models.EngagementLike:
		res = tx.Where("entry_id = ? AND explorer_id = ?", entryID, explorerID).Delete(&models.Like{})
	default:
		res = tx.Where("entry_id = ? AND explorer_id = ?", entryID, explorerID).Delete(&models.Bookmark{})
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *engagementRepository) insertRelation(tx *gorm.DB, entryID, explorerID uint, kind models.EngagementKind) (bool, error) {
	// INSERT ... ON CONFLICT DO NOTHING: the unique constraint arbitrates
	// concurrent inserts instead of a racy check-then-insert.
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}, {Name: "explorer_id"}},
		DoNothing: true,
	}

	var res *gorm.DB
	switch kind {
	case models.EngagementLike:
		res = tx.Clauses(onConflict).Create(&models.Like{EntryID: entryID, ExplorerID: explorerID})
	default:
		res = tx.Clauses(onConflict).Create(&models.Bookmark{EntryID: entryID, ExplorerID: explorerID})
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *engagementRepository) moveEntryCounter(tx *gorm.DB, entryID uint, kind models.EngagementKind, delta int) error {
	column := "likes_count"
	if kind == models.EngagementBookmark {
		column = "bookmarks_count"
	}
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		// Floor guard: the counter must never drop below the row count.
		expr = gorm.Expr("GREATEST("+column+" + ?, 0)", delta)
	}
	return tx.Model(&models.Entry{}).
		Where("id = ?", entryID).
		UpdateColumn(column, expr).Error
}

func (r *engagementRepository) moveExplorerBookmarks(tx *gorm.DB, explorerID uint, delta int) error {
	expr := gorm.Expr("bookmarks_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("GREATEST(bookmarks_count + ?, 0)", delta)
	}
	return tx.Model(&models.Explorer{}).
		Where("id = ?", explorerID).
		UpdateColumn("bookmarks_count", expr).Error
}

func (r *engagementRepository) readBack(tx *gorm.DB, entryID uint, kind models.EngagementKind, result *ToggleResult) error {
	var row struct {
		LikesCount     int
		BookmarksCount int
		PublicID       string
		AuthorID       uint
	}
	err := tx.Model(&models.Entry{}).
		Select("likes_count", "bookmarks_count", "public_id", "author_id").
		Where("id = ?", entryID).
		Scan(&row).Error
	if err != nil {
		return err
	}
	if kind == models.EngagementBookmark {
		result.Count = row.BookmarksCount
	} else {
		result.Count = row.LikesCount
	}
	result.EntryPublicID = row.PublicID
	result.AuthorID = row.AuthorID
	return nil
}
