package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an explorer's comment on an entry. Entry.CommentsCount moves in
// the same transaction as the comment row.
type Comment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Body       string `gorm:"type:text;not null" json:"body"`
	EntryID    uint   `gorm:"not null;index" json:"entry_id"`
	ExplorerID uint   `gorm:"not null;index" json:"-"`

	Explorer *Explorer `gorm:"foreignKey:ExplorerID" json:"explorer,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
