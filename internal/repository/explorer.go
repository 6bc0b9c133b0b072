package repository

import (
	"context"

	"waypost/internal/cache"
	"waypost/internal/models"

	"gorm.io/gorm"
)

// ExplorerRepository defines the interface for explorer data operations
type ExplorerRepository interface {
	Create(ctx context.Context, explorer *models.Explorer) error
	GetByID(ctx context.Context, id uint) (*models.Explorer, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Explorer, error)
	GetByUsername(ctx context.Context, username string) (*models.Explorer, error)
	GetByEmail(ctx context.Context, email string) (*models.Explorer, error)
	Update(ctx context.Context, explorer *models.Explorer) error
}

type explorerRepository struct {
	db *gorm.DB
}

// NewExplorerRepository creates a new explorer repository
func NewExplorerRepository(db *gorm.DB) ExplorerRepository {
	return &explorerRepository{db: db}
}

func (r *explorerRepository) Create(ctx context.Context, explorer *models.Explorer) error {
	return r.db.WithContext(ctx).Create(explorer).Error
}

// cachedExplorer preserves the internal id, which the API JSON form hides
// and the token issuer needs on a cache hit. The password hash is never
// written to the cache; credential checks read the database directly.
type cachedExplorer struct {
	Explorer *models.Explorer `json:"explorer"`
	ID       uint             `json:"internal_id"`
}

func newCachedExplorer(explorer *models.Explorer) cachedExplorer {
	return cachedExplorer{Explorer: explorer, ID: explorer.ID}
}

func (c cachedExplorer) restore() *models.Explorer {
	explorer := c.Explorer
	explorer.ID = c.ID
	return explorer
}

func (r *explorerRepository) GetByID(ctx context.Context, id uint) (*models.Explorer, error) {
	var explorer models.Explorer
	var cached cachedExplorer
	err := cache.Aside(ctx, cache.ExplorerKey(id), &cached, cache.ExplorerTTL, func() error {
		if err := r.db.WithContext(ctx).First(&explorer, id).Error; err != nil {
			return err
		}
		cached = newCachedExplorer(&explorer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cached.Explorer == nil {
		if err := r.db.WithContext(ctx).First(&explorer, id).Error; err != nil {
			return nil, err
		}
		return &explorer, nil
	}
	return cached.restore(), nil
}

func (r *explorerRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Explorer, error) {
	var explorer models.Explorer
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&explorer).Error
	if err != nil {
		return nil, err
	}
	return &explorer, nil
}

func (r *explorerRepository) GetByUsername(ctx context.Context, username string) (*models.Explorer, error) {
	var explorer models.Explorer
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&explorer).Error
	if err != nil {
		return nil, err
	}
	return &explorer, nil
}

func (r *explorerRepository) GetByEmail(ctx context.Context, email string) (*models.Explorer, error) {
	var explorer models.Explorer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&explorer).Error
	if err != nil {
		return nil, err
	}
	return &explorer, nil
}

func (r *explorerRepository) Update(ctx context.Context, explorer *models.Explorer) error {
	if err := r.db.WithContext(ctx).Save(explorer).Error; err != nil {
		return err
	}
	cache.InvalidateExplorer(ctx, explorer.ID)
	return nil
}
