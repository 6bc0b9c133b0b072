package models

import (
	"time"

	"gorm.io/gorm"
)

// SponsorshipStatus is the lifecycle state of a paid sponsorship.
type SponsorshipStatus string

const (
	// SponsorshipStatusActive is the only state that grants access.
	SponsorshipStatusActive SponsorshipStatus = "ACTIVE"
	// SponsorshipStatusPastDue marks a sponsorship with a failed renewal.
	SponsorshipStatusPastDue SponsorshipStatus = "PAST_DUE"
	// SponsorshipStatusCanceled marks a sponsorship ended by the sponsor.
	SponsorshipStatusCanceled SponsorshipStatus = "CANCELED"
)

// Sponsorship is a paid, time-bounded support relationship from one explorer
// to a creator. It qualifies for sponsored-content access only while
// status is ACTIVE, the expiry is in the future and the row is not deleted.
// Payment state transitions come from the external payment collaborator.
type Sponsorship struct {
	ID uint `gorm:"primaryKey" json:"-"`

	SponsorID uint      `gorm:"not null;uniqueIndex:idx_sponsor_creator" json:"-"`
	Sponsor   *Explorer `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`

	SponsoredExplorerID uint      `gorm:"not null;uniqueIndex:idx_sponsor_creator" json:"-"`
	SponsoredExplorer   *Explorer `gorm:"foreignKey:SponsoredExplorerID" json:"sponsored_explorer,omitempty"`

	Status    SponsorshipStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	ExpiresAt time.Time         `gorm:"not null" json:"expires_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// QualifiesAt reports whether the sponsorship grants access at the given time.
func (s *Sponsorship) QualifiesAt(now time.Time) bool {
	return s.Status == SponsorshipStatusActive && s.ExpiresAt.After(now) && !s.DeletedAt.Valid
}
