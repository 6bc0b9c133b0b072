package repository

import (
	"context"

	"waypost/internal/cache"
	"waypost/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// Create inserts the comment and bumps the entry's comments counter in
	// the same transaction.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByEntry(ctx context.Context, entryID uint, limit, offset int) ([]*models.Comment, error)
	// Delete removes the comment and decrements the counter in the same
	// transaction.
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Entry{}).
			Where("id = ?", comment.EntryID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return err
	}
	r.invalidateEntry(ctx, comment.EntryID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Explorer").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByEntry(ctx context.Context, entryID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Explorer").
		Where("entry_id = ?", entryID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Entry{}).
			Where("id = ?", comment.EntryID).
			UpdateColumn("comments_count", gorm.Expr("GREATEST(comments_count - 1, 0)")).Error
	})
	if err != nil {
		return err
	}
	r.invalidateEntry(ctx, comment.EntryID)
	return nil
}

func (r *commentRepository) invalidateEntry(ctx context.Context, entryID uint) {
	var publicID string
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", entryID).
		Pluck("public_id", &publicID).Error
	if err == nil && publicID != "" {
		cache.InvalidateEntry(ctx, publicID)
	}
}
