// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role defines an explorer's platform role.
type Role string

const (
	// RoleUser is the default role for a registered explorer.
	RoleUser Role = "USER"
	// RoleCreator marks explorers who publish sponsored content.
	RoleCreator Role = "CREATOR"
	// RoleAdmin grants platform-wide moderation privileges.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCreator, RoleAdmin:
		return true
	}
	return false
}

// Explorer represents a platform user account.
type Explorer struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
	// BookmarksCount caches the number of bookmark rows owned by this
	// explorer; it moves only inside the same transaction as the row.
	BookmarksCount int            `gorm:"not null;default:0" json:"bookmarks_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a public id when none was provided.
func (e *Explorer) BeforeCreate(_ *gorm.DB) error {
	if e.PublicID == "" {
		e.PublicID = uuid.NewString()
	}
	return nil
}

// Session is the resolved identity supplied by the authentication layer.
// A zero Session (ExplorerID == 0) denotes an anonymous viewer.
type Session struct {
	ExplorerID uint
	Role       Role
}

// Authenticated reports whether the session belongs to a signed-in explorer.
func (s Session) Authenticated() bool {
	return s.ExplorerID != 0
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
