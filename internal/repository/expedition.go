package repository

import (
	"context"

	"waypost/internal/models"

	"gorm.io/gorm"
)

// ExpeditionRepository defines the interface for expedition data operations
type ExpeditionRepository interface {
	Create(ctx context.Context, expedition *models.Expedition) error
	GetByPublicID(ctx context.Context, publicID string) (*models.Expedition, error)
	GetByID(ctx context.Context, id uint) (*models.Expedition, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Expedition, error)
	Update(ctx context.Context, expedition *models.Expedition) error
	Delete(ctx context.Context, id uint) error
}

type expeditionRepository struct {
	db *gorm.DB
}

// NewExpeditionRepository creates a new expedition repository
func NewExpeditionRepository(db *gorm.DB) ExpeditionRepository {
	return &expeditionRepository{db: db}
}

func (r *expeditionRepository) Create(ctx context.Context, expedition *models.Expedition) error {
	return r.db.WithContext(ctx).Create(expedition).Error
}

func (r *expeditionRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Expedition, error) {
	var expedition models.Expedition
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("public_id = ?", publicID).
		First(&expedition).Error
	if err != nil {
		return nil, err
	}
	return &expedition, nil
}

func (r *expeditionRepository) GetByID(ctx context.Context, id uint) (*models.Expedition, error) {
	var expedition models.Expedition
	if err := r.db.WithContext(ctx).First(&expedition, id).Error; err != nil {
		return nil, err
	}
	return &expedition, nil
}

func (r *expeditionRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Expedition, error) {
	var expeditions []*models.Expedition
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("start_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&expeditions).Error
	if err != nil {
		return nil, err
	}
	return expeditions, nil
}

func (r *expeditionRepository) Update(ctx context.Context, expedition *models.Expedition) error {
	return r.db.WithContext(ctx).Save(expedition).Error
}

func (r *expeditionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Expedition{}, id).Error
}
