package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expedition is a named grouping of entries representing a themed journey.
type Expedition struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Name     string `gorm:"not null" json:"name"`

	AuthorID uint      `gorm:"not null;index" json:"-"`
	Author   *Explorer `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// StartDate anchors the day-offset calculation for member entries.
	StartDate time.Time `gorm:"not null" json:"start_date"`

	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a public id when none was provided.
func (x *Expedition) BeforeCreate(_ *gorm.DB) error {
	if x.PublicID == "" {
		x.PublicID = uuid.NewString()
	}
	return nil
}
