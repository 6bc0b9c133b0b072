package service

import (
	"context"
	"errors"

	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/notifications"
	"waypost/internal/observability"
	"waypost/internal/repository"
	"waypost/internal/visibility"

	"gorm.io/gorm"
)

// EventTrigger publishes a notification event. *notifications.Notifier
// satisfies it.
type EventTrigger interface {
	Trigger(ctx context.Context, event notifications.Event) error
}

// EngagementLedger owns the like/bookmark toggle. It resolves the entry,
// applies the visibility and sponsorship rules, runs the atomic toggle and
// fires the like notification on creation.
type EngagementLedger struct {
	entries     repository.EntryRepository
	engagements repository.EngagementRepository
	gate        *SponsorshipGate
	notifier    EventTrigger
}

// NewEngagementLedger creates a new ledger.
func NewEngagementLedger(
	entries repository.EntryRepository,
	engagements repository.EngagementRepository,
	gate *SponsorshipGate,
	notifier EventTrigger,
) *EngagementLedger {
	return &EngagementLedger{
		entries:     entries,
		engagements: engagements,
		gate:        gate,
		notifier:    notifier,
	}
}

// ToggleOutcome is what a committed toggle reports back to the handler.
type ToggleOutcome struct {
	Kind    models.EngagementKind
	Count   int
	Created bool
}

// Toggle flips the viewer's like or bookmark on the entry and returns the
// post-toggle counter. A toggle that loses a race against a concurrent toggle
// for the same pair is retried once; the retry observes the winner's state
// and lands on the opposite side, which is the correct serialized outcome.
func (l *EngagementLedger) Toggle(ctx context.Context, entryPublicID string, viewer models.Session, kind models.EngagementKind) (*ToggleOutcome, error) {
	if !viewer.Authenticated() {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown engagement kind")
	}

	entry, err := l.entries.GetByPublicID(ctx, entryPublicID, viewer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Entry")
		}
		return nil, models.NewInternalError(err)
	}
	if !visibility.IsVisible(entry, viewer) {
		return nil, models.NewNotFoundError("Entry")
	}
	allowed, err := l.gate.CanViewSponsored(ctx, entry, viewer)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !allowed {
		return nil, models.NewForbiddenError("an active sponsorship is required")
	}

	result, err := l.engagements.Toggle(ctx, entry.ID, viewer.ExplorerID, kind)
	if errors.Is(err, repository.ErrToggleConflict) {
		observability.EngagementToggles.WithLabelValues(string(kind), "conflict").Inc()
		result, err = l.engagements.Toggle(ctx, entry.ID, viewer.ExplorerID, kind)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	outcome := "removed"
	if result.Created {
		outcome = "created"
	}
	observability.EngagementToggles.WithLabelValues(string(kind), outcome).Inc()

	// Notify the author on a fresh like only. Removals and self-likes are
	// silent, and a failed publish never fails the toggle.
	if result.Created && kind == models.EngagementLike && result.AuthorID != viewer.ExplorerID {
		if err := l.notifier.Trigger(ctx, notifications.Event{
			Context:     notifications.EventLike,
			RecipientID: result.AuthorID,
			ActorID:     viewer.ExplorerID,
			SubjectID:   result.EntryPublicID,
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "like notification publish failed",
				"entry_id", result.EntryPublicID,
				"error", err.Error(),
			)
		}
	}

	return &ToggleOutcome{
		Kind:    kind,
		Count:   result.Count,
		Created: result.Created,
	}, nil
}
