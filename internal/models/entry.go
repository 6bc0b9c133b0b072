package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryVisibility is the author-chosen audience for an entry.
type EntryVisibility string

const (
	// EntryVisibilityPublic makes the entry visible to everyone once published.
	EntryVisibilityPublic EntryVisibility = "public"
	// EntryVisibilityPrivate keeps the entry visible to the author (and admins) only.
	EntryVisibilityPrivate EntryVisibility = "private"
	// EntryVisibilitySponsors limits the entry to active sponsors of the author.
	EntryVisibilitySponsors EntryVisibility = "sponsors"
)

// Entry represents a journal post authored by an explorer.
//
// The likes/bookmarks/comments/views counters are denormalized caches of the
// corresponding relation tables. They are mutated only inside the same
// transaction as their relation row, never written directly by handlers.
type Entry struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Body     string `gorm:"type:text" json:"body"`

	AuthorID uint      `gorm:"not null;index" json:"-"`
	Author   *Explorer `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	ExpeditionID *uint       `gorm:"index" json:"-"`
	Expedition   *Expedition `gorm:"foreignKey:ExpeditionID" json:"expedition,omitempty"`

	Public     bool            `gorm:"not null;default:false;index" json:"public"`
	IsDraft    bool            `gorm:"not null;default:true" json:"is_draft"`
	Sponsored  bool            `gorm:"not null;default:false" json:"sponsored"`
	Visibility EntryVisibility `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`

	LikesCount     int `gorm:"not null;default:0" json:"likes_count"`
	BookmarksCount int `gorm:"not null;default:0" json:"bookmarks_count"`
	CommentsCount  int `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount     int `gorm:"not null;default:0" json:"views_count"`

	// Date is the journal date of the entry, distinct from CreatedAt.
	Date time.Time `gorm:"not null;index" json:"date"`

	// Liked/Bookmarked indicate whether the requesting explorer has the
	// corresponding relation row; computed at query time, never persisted.
	Liked      bool `gorm:"->;-:migration" json:"liked"`
	Bookmarked bool `gorm:"->;-:migration" json:"bookmarked"`

	// EntryNumber and ExpeditionDay are derived read-only fields, populated
	// for entries that belong to an expedition.
	EntryNumber   int `gorm:"-" json:"entry_number,omitempty"`
	ExpeditionDay int `gorm:"-" json:"expedition_day,omitempty"`

	PlaceName string  `json:"place_name,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a public id and defaults the journal date.
func (e *Entry) BeforeCreate(_ *gorm.DB) error {
	if e.PublicID == "" {
		e.PublicID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	return nil
}
