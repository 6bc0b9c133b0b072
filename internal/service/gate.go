// Package service contains the application's business logic layer.
package service

import (
	"context"
	"time"

	"waypost/internal/models"
	"waypost/internal/observability"
	"waypost/internal/repository"
)

// SponsorshipGate decides whether a viewer may access sponsored content.
// Visibility runs first and answers "does this entry exist for you"; the gate
// answers "may you open it". A gate denial on a single fetch is therefore a
// Forbidden, never a NotFound.
type SponsorshipGate struct {
	sponsorships repository.SponsorshipRepository
	now          func() time.Time
}

// NewSponsorshipGate creates a new gate backed by the sponsorship repository.
func NewSponsorshipGate(sponsorships repository.SponsorshipRepository) *SponsorshipGate {
	return &SponsorshipGate{
		sponsorships: sponsorships,
		now:          time.Now,
	}
}

// CanViewSponsored reports whether the viewer may open a sponsored entry.
// Authors always pass their own gate, admins pass every gate.
func (g *SponsorshipGate) CanViewSponsored(ctx context.Context, entry *models.Entry, viewer models.Session) (bool, error) {
	if !entry.Sponsored {
		return true, nil
	}
	if viewer.IsAdmin() || entry.AuthorID == viewer.ExplorerID {
		observability.SponsorshipChecks.WithLabelValues("allowed").Inc()
		return true, nil
	}
	if !viewer.Authenticated() {
		observability.SponsorshipChecks.WithLabelValues("denied").Inc()
		return false, nil
	}

	ok, err := g.sponsorships.HasActiveSponsorship(ctx, viewer.ExplorerID, entry.AuthorID, g.now())
	if err != nil {
		return false, err
	}
	if ok {
		observability.SponsorshipChecks.WithLabelValues("allowed").Inc()
	} else {
		observability.SponsorshipChecks.WithLabelValues("denied").Inc()
	}
	return ok, nil
}

// FilterSponsored removes sponsored entries the viewer has no access to.
// All distinct creator ids behind the sponsored entries are resolved with a
// single batched query, not one lookup per entry.
func (g *SponsorshipGate) FilterSponsored(ctx context.Context, entries []*models.Entry, viewer models.Session) ([]*models.Entry, error) {
	if viewer.IsAdmin() {
		return entries, nil
	}

	creatorSet := make(map[uint]struct{})
	for _, entry := range entries {
		if entry.Sponsored && entry.AuthorID != viewer.ExplorerID {
			creatorSet[entry.AuthorID] = struct{}{}
		}
	}
	if len(creatorSet) == 0 {
		return entries, nil
	}

	sponsored := map[uint]bool{}
	if viewer.Authenticated() {
		creatorIDs := make([]uint, 0, len(creatorSet))
		for id := range creatorSet {
			creatorIDs = append(creatorIDs, id)
		}
		var err error
		sponsored, err = g.sponsorships.ActiveSponsoredCreatorIDs(ctx, viewer.ExplorerID, creatorIDs, g.now())
		if err != nil {
			return nil, err
		}
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Sponsored && entry.AuthorID != viewer.ExplorerID && !sponsored[entry.AuthorID] {
			observability.SponsorshipChecks.WithLabelValues("denied").Inc()
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}
