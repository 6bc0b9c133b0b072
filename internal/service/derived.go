package service

import (
	"context"
	"time"

	"waypost/internal/models"
	"waypost/internal/repository"
)

// DerivedFieldsCalculator fills the read-only EntryNumber and ExpeditionDay
// fields for entries that belong to an expedition. Both are computed on read
// and never persisted, so reordering or backdating entries can never leave a
// stale ordinal behind.
type DerivedFieldsCalculator struct {
	entries     repository.EntryRepository
	expeditions repository.ExpeditionRepository
}

// NewDerivedFieldsCalculator creates a new calculator.
func NewDerivedFieldsCalculator(entries repository.EntryRepository, expeditions repository.ExpeditionRepository) *DerivedFieldsCalculator {
	return &DerivedFieldsCalculator{entries: entries, expeditions: expeditions}
}

// Enrich populates the derived fields on a single entry. Entries without an
// expedition, and drafts, are left untouched.
func (c *DerivedFieldsCalculator) Enrich(ctx context.Context, entry *models.Entry) error {
	if entry.ExpeditionID == nil {
		return nil
	}

	expedition := entry.Expedition
	if expedition == nil {
		var err error
		expedition, err = c.expeditions.GetByID(ctx, *entry.ExpeditionID)
		if err != nil {
			return err
		}
	}
	entry.ExpeditionDay = ExpeditionDay(expedition.StartDate, entry.Date)

	if entry.IsDraft {
		// Drafts have no position among published siblings yet.
		return nil
	}
	earlier, err := c.entries.CountEarlierSiblings(ctx, *entry.ExpeditionID, entry.Date, entry.ID)
	if err != nil {
		return err
	}
	entry.EntryNumber = int(earlier) + 1
	return nil
}

// EnrichAll populates derived fields for every entry in the slice.
func (c *DerivedFieldsCalculator) EnrichAll(ctx context.Context, entries []*models.Entry) error {
	for _, entry := range entries {
		if err := c.Enrich(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// ExpeditionDay computes the 1-based day offset of a journal date within an
// expedition. Entries dated before the start date clamp to day 1 rather than
// reporting a zero or negative day.
func ExpeditionDay(start, date time.Time) int {
	day := int(date.Sub(start).Hours()/24) + 1
	if day < 1 {
		return 1
	}
	return day
}
