// Package seed populates a development database with deterministic fixtures.
package seed

import (
	"fmt"
	"log"
	"time"

	"waypost/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// password shared by every seeded explorer, development only.
const seedPassword = "waypost-dev-pass"

type explorerFixture struct {
	Username string
	Email    string
	Role     models.Role
	Bio      string
}

var explorers = []explorerFixture{
	{"ada_admin", "ada@waypost.dev", models.RoleAdmin, "Keeping the trails tidy."},
	{"nils_nomad", "nils@waypost.dev", models.RoleCreator, "Crossing the Nordic countries on foot."},
	{"mira_mountains", "mira@waypost.dev", models.RoleCreator, "High-altitude journals and route notes."},
	{"sam_sponsor", "sam@waypost.dev", models.RoleUser, "Armchair traveler, generous sponsor."},
	{"lea_lurker", "lea@waypost.dev", models.RoleUser, "Mostly reading, sometimes bookmarking."},
}

type entryFixture struct {
	Author    string
	Title     string
	Body      string
	DayOffset int
	Public    bool
	IsDraft   bool
	Sponsored bool
	Deleted   bool
	PlaceName string
}

// nils's entries hang off his expedition and cover every visibility state
// including soft deletion, so a seeded database exercises the whole read
// pipeline.
var nilsEntries = []entryFixture{
	{"nils_nomad", "Setting off from Oslo", "The pack is heavier than planned.", 0, true, false, false, false, "Oslo"},
	{"nils_nomad", "Rain day in Lillehammer", "Waiting it out under a bus shelter.", 3, true, false, false, false, "Lillehammer"},
	{"nils_nomad", "Wrong turn near Hamar", "Posted the wrong map, pulled it again.", 4, true, false, false, true, "Hamar"},
	{"nils_nomad", "Route notes: Dovrefjell crossing", "Detailed waypoints for sponsors.", 6, true, false, true, false, "Dovrefjell"},
	{"nils_nomad", "Gear doubts", "Not ready to publish this one yet.", 7, true, true, false, false, ""},
	{"nils_nomad", "Private: resupply contacts", "Phone numbers, not for the feed.", 8, false, false, false, false, ""},
}

var miraEntries = []entryFixture{
	{"mira_mountains", "Acclimatization hike", "Two rotations before the push.", 0, true, false, false, false, "Base Camp"},
	{"mira_mountains", "Summit window forecast", "Sponsor-only weather analysis.", 2, true, false, true, false, "Base Camp"},
}

// Run inserts the fixtures. It is idempotent per username and safe to run
// repeatedly against a development database.
func Run(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	byUsername := map[string]*models.Explorer{}
	for _, fx := range explorers {
		explorer := &models.Explorer{
			Username: fx.Username,
			Email:    fx.Email,
			Password: string(hash),
			Role:     fx.Role,
			Bio:      fx.Bio,
		}
		var existing models.Explorer
		err := db.Where("username = ?", fx.Username).First(&existing).Error
		switch {
		case err == nil:
			byUsername[fx.Username] = &existing
			continue
		case err != gorm.ErrRecordNotFound:
			return fmt.Errorf("lookup explorer %s: %w", fx.Username, err)
		}
		if err := db.Create(explorer).Error; err != nil {
			return fmt.Errorf("create explorer %s: %w", fx.Username, err)
		}
		byUsername[fx.Username] = explorer
	}

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	expedition := &models.Expedition{
		Name:        "Oslo to Trondheim on foot",
		AuthorID:    byUsername["nils_nomad"].ID,
		StartDate:   start,
		Description: "Five hundred kilometers of Norwegian summer.",
	}
	var existingExpedition models.Expedition
	err = db.Where("name = ? AND author_id = ?", expedition.Name, expedition.AuthorID).
		First(&existingExpedition).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.Create(expedition).Error; err != nil {
			return fmt.Errorf("create expedition: %w", err)
		}
	} else if err != nil {
		return err
	} else {
		expedition = &existingExpedition
	}

	if err := seedEntries(db, byUsername, nilsEntries, &expedition.ID, start); err != nil {
		return err
	}
	if err := seedEntries(db, byUsername, miraEntries, nil, start); err != nil {
		return err
	}

	// sam sponsors nils (active) and mira (expired), so both gate outcomes
	// are reachable with seeded accounts.
	sponsorships := []*models.Sponsorship{
		{
			SponsorID:           byUsername["sam_sponsor"].ID,
			SponsoredExplorerID: byUsername["nils_nomad"].ID,
			Status:              models.SponsorshipStatusActive,
			ExpiresAt:           time.Now().Add(30 * 24 * time.Hour),
		},
		{
			SponsorID:           byUsername["sam_sponsor"].ID,
			SponsoredExplorerID: byUsername["mira_mountains"].ID,
			Status:              models.SponsorshipStatusActive,
			ExpiresAt:           time.Now().Add(-24 * time.Hour),
		},
	}
	for _, sp := range sponsorships {
		var existing models.Sponsorship
		err := db.Where("sponsor_id = ? AND sponsored_explorer_id = ?", sp.SponsorID, sp.SponsoredExplorerID).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(sp).Error; err != nil {
				return fmt.Errorf("create sponsorship: %w", err)
			}
		} else if err != nil {
			return err
		}
	}

	log.Printf("Seeded %d explorers, 1 expedition, %d entries", len(explorers), len(nilsEntries)+len(miraEntries))
	return nil
}

func seedEntries(db *gorm.DB, byUsername map[string]*models.Explorer, fixtures []entryFixture, expeditionID *uint, start time.Time) error {
	for _, fx := range fixtures {
		author := byUsername[fx.Author]
		var existing models.Entry
		// Unscoped so the soft-deleted fixture survives reruns.
		err := db.Unscoped().Where("title = ? AND author_id = ?", fx.Title, author.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("lookup entry %q: %w", fx.Title, err)
		}

		visibility := models.EntryVisibilityPrivate
		if fx.Sponsored {
			visibility = models.EntryVisibilitySponsors
		} else if fx.Public && !fx.IsDraft {
			visibility = models.EntryVisibilityPublic
		}

		entry := &models.Entry{
			Title:      fx.Title,
			Body:       fx.Body,
			AuthorID:   author.ID,
			Public:     fx.Public,
			IsDraft:    fx.IsDraft,
			Sponsored:  fx.Sponsored,
			Visibility: visibility,
			Date:       start.AddDate(0, 0, fx.DayOffset),
			PlaceName:  fx.PlaceName,
		}
		if fx.Author == "nils_nomad" {
			entry.ExpeditionID = expeditionID
		}
		if err := db.Create(entry).Error; err != nil {
			return fmt.Errorf("create entry %q: %w", fx.Title, err)
		}
		if fx.Deleted {
			if err := db.Delete(entry).Error; err != nil {
				return fmt.Errorf("soft delete entry %q: %w", fx.Title, err)
			}
		}
	}
	return nil
}
