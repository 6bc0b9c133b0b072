package models

import (
	"fmt"
	"time"
)

// EntryView is a uniqueness row used only to dedup unique views of an entry.
// ViewerKey carries the dedup identity: "u:<explorer id>" for authenticated
// viewers, "ip:<address>" for anonymous ones, so a single unique constraint
// covers both. Entry.ViewsCount is incremented on every qualifying view
// regardless of whether the insert here deduplicates.
type EntryView struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	EntryID   uint   `gorm:"not null;uniqueIndex:idx_view_entry_viewer" json:"entry_id"`
	ViewerKey string `gorm:"type:varchar(64);not null;uniqueIndex:idx_view_entry_viewer" json:"-"`

	ViewerID *uint  `json:"viewer_id,omitempty"`
	ViewerIP string `json:"viewer_ip,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ViewerKeyForExplorer builds the dedup key for an authenticated viewer.
func ViewerKeyForExplorer(explorerID uint) string {
	return fmt.Sprintf("u:%d", explorerID)
}

// ViewerKeyForIP builds the dedup key for an anonymous viewer.
func ViewerKeyForIP(ip string) string {
	return "ip:" + ip
}
