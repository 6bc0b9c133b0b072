// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"waypost/internal/cache"
	"waypost/internal/models"
	"waypost/internal/observability"

	"gorm.io/gorm"
)

// EntryFilter narrows entry list queries.
type EntryFilter struct {
	AuthorID     uint
	ExpeditionID uint
	Limit        int
	Offset       int
}

// EntryRepository defines the interface for entry data operations
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	GetByPublicID(ctx context.Context, publicID string, viewer models.Session) (*models.Entry, error)
	GetByID(ctx context.Context, id uint) (*models.Entry, error)
	List(ctx context.Context, filter EntryFilter, viewer models.Session) ([]*models.Entry, error)
	ListBookmarkedBy(ctx context.Context, explorerID uint, limit, offset int) ([]*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id uint) error
	CountEarlierSiblings(ctx context.Context, expeditionID uint, date time.Time, entryID uint) (int64, error)
}

// entryRepository implements EntryRepository
type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

// VisibleTo is the storage-level twin of visibility.IsVisible: it narrows a
// query to rows the session may see. Soft-deleted rows are already excluded
// by GORM's soft-delete scope.
func VisibleTo(viewer models.Session) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case viewer.IsAdmin():
			return db
		case viewer.Authenticated():
			return db.Where(
				"entries.author_id = ? OR (entries.public = TRUE AND entries.is_draft = FALSE)",
				viewer.ExplorerID,
			)
		default:
			return db.Where("entries.public = TRUE AND entries.is_draft = FALSE")
		}
	}
}

// withViewerFlags adds EXISTS subqueries computing the liked/bookmarked flags
// for the requesting explorer in a single query.
func (r *entryRepository) withViewerFlags(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID != 0 {
		return db.Select(
			"entries.*, "+
				"EXISTS(SELECT 1 FROM likes WHERE likes.entry_id = entries.id AND likes.explorer_id = ?) AS liked, "+
				"EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.entry_id = entries.id AND bookmarks.explorer_id = ?) AS bookmarked",
			viewerID, viewerID,
		)
	}
	return db.Select("entries.*, FALSE AS liked, FALSE AS bookmarked")
}

func (r *entryRepository) Create(ctx context.Context, entry *models.Entry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err == nil {
		cache.InvalidateEntryList(ctx)
	}
	return err
}

// cachedEntry pairs the API representation with the internal ids its JSON
// form hides. The view tracker, derived-field calculator and comment lookups
// all need those ids, so a cache hit must restore them.
type cachedEntry struct {
	Entry        *models.Entry `json:"entry"`
	ID           uint          `json:"internal_id"`
	AuthorID     uint          `json:"author_id"`
	ExpeditionID *uint         `json:"expedition_id"`
}

func newCachedEntry(entry *models.Entry) cachedEntry {
	return cachedEntry{
		Entry:        entry,
		ID:           entry.ID,
		AuthorID:     entry.AuthorID,
		ExpeditionID: entry.ExpeditionID,
	}
}

func (c cachedEntry) restore() *models.Entry {
	entry := c.Entry
	entry.ID = c.ID
	entry.AuthorID = c.AuthorID
	entry.ExpeditionID = c.ExpeditionID
	return entry
}

func (r *entryRepository) GetByPublicID(ctx context.Context, publicID string, viewer models.Session) (*models.Entry, error) {
	var entry models.Entry
	fetch := func() error {
		return r.withViewerFlags(r.db.WithContext(ctx), viewer.ExplorerID).
			Preload("Author").
			Preload("Expedition").
			Where("entries.public_id = ?", publicID).
			First(&entry).Error
	}

	// Anonymous reads carry no viewer flags, so they are safe to share
	// through the cache. Authenticated reads always hit the database.
	if viewer.Authenticated() {
		if err := fetch(); err != nil {
			return nil, err
		}
		return &entry, nil
	}

	var cached cachedEntry
	err := cache.Aside(ctx, cache.EntryKey(publicID), &cached, cache.EntryTTL, func() error {
		if err := fetch(); err != nil {
			return err
		}
		cached = newCachedEntry(&entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cached.Entry == nil {
		// Corrupt or legacy cache payload; fall back to the database.
		if err := fetch(); err != nil {
			return nil, err
		}
		return &entry, nil
	}
	return cached.restore(), nil
}

func (r *entryRepository) GetByID(ctx context.Context, id uint) (*models.Entry, error) {
	var entry models.Entry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepository) List(ctx context.Context, filter EntryFilter, viewer models.Session) ([]*models.Entry, error) {
	defer observability.TrackQuery("list", "entries")()
	var entries []*models.Entry
	q := r.withViewerFlags(r.db.WithContext(ctx), viewer.ExplorerID).
		Preload("Author").
		Preload("Expedition").
		Scopes(VisibleTo(viewer))
	if filter.AuthorID != 0 {
		q = q.Where("entries.author_id = ?", filter.AuthorID)
	}
	if filter.ExpeditionID != 0 {
		q = q.Where("entries.expedition_id = ?", filter.ExpeditionID)
	}
	err := q.Order("entries.date DESC, entries.id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) ListBookmarkedBy(ctx context.Context, explorerID uint, limit, offset int) ([]*models.Entry, error) {
	var entries []*models.Entry
	viewer := models.Session{ExplorerID: explorerID, Role: models.RoleUser}
	err := r.withViewerFlags(r.db.WithContext(ctx), explorerID).
		Preload("Author").
		Preload("Expedition").
		Joins("JOIN bookmarks ON bookmarks.entry_id = entries.id AND bookmarks.explorer_id = ?", explorerID).
		Scopes(VisibleTo(viewer)).
		Order("bookmarks.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) Update(ctx context.Context, entry *models.Entry) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return err
	}
	cache.InvalidateEntry(ctx, entry.PublicID)
	cache.InvalidateEntryList(ctx)
	return nil
}

func (r *entryRepository) Delete(ctx context.Context, id uint) error {
	var entry models.Entry
	if err := r.db.WithContext(ctx).Select("id", "public_id").First(&entry, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&models.Entry{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateEntry(ctx, entry.PublicID)
	cache.InvalidateEntryList(ctx)
	return nil
}

// CountEarlierSiblings counts published sibling entries of the same
// expedition dated strictly earlier, with ties on date broken by internal id.
func (r *entryRepository) CountEarlierSiblings(ctx context.Context, expeditionID uint, date time.Time, entryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("expedition_id = ? AND is_draft = FALSE", expeditionID).
		Where("(date < ? OR (date = ? AND id < ?))", date, date, entryID).
		Count(&count).Error
	return count, err
}
