package models

import "time"

// EngagementKind selects which relation a toggle operates on.
type EngagementKind string

const (
	// EngagementLike is the like relation.
	EngagementLike EngagementKind = "LIKE"
	// EngagementBookmark is the bookmark relation.
	EngagementBookmark EngagementKind = "BOOKMARK"
)

// Valid reports whether k is a known engagement kind.
func (k EngagementKind) Valid() bool {
	return k == EngagementLike || k == EngagementBookmark
}

// Like is an explorer's like on an entry.
// The (entry_id, explorer_id) pair is unique; existence of the row is the
// single source of truth, Entry.LikesCount is a cache derived from it.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntryID    uint      `gorm:"not null;uniqueIndex:idx_like_entry_explorer" json:"entry_id"`
	ExplorerID uint      `gorm:"not null;uniqueIndex:idx_like_entry_explorer" json:"explorer_id"`
	CreatedAt  time.Time `json:"created_at"`

	Entry    *Entry    `gorm:"foreignKey:EntryID" json:"-"`
	Explorer *Explorer `gorm:"foreignKey:ExplorerID" json:"-"`
}

// Bookmark is an explorer's bookmark of an entry, unique per
// (entry_id, explorer_id) like the like relation.
type Bookmark struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntryID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_entry_explorer" json:"entry_id"`
	ExplorerID uint      `gorm:"not null;uniqueIndex:idx_bookmark_entry_explorer" json:"explorer_id"`
	CreatedAt  time.Time `json:"created_at"`

	Entry    *Entry    `gorm:"foreignKey:EntryID" json:"-"`
	Explorer *Explorer `gorm:"foreignKey:ExplorerID" json:"-"`
}
