package service

import (
	"context"
	"time"

	"waypost/internal/middleware"
	"waypost/internal/models"
	"waypost/internal/observability"
	"waypost/internal/repository"
)

// viewRecordTimeout bounds the detached view write so an abandoned request
// cannot leak a goroutine against a stalled database.
const viewRecordTimeout = 5 * time.Second

// ViewTracker records entry views off the request path. A view must never
// slow down or fail the read that produced it, so recording is detached and
// every failure is logged and swallowed.
type ViewTracker struct {
	views repository.ViewRepository

	// spawn runs fn detached. Tests replace it with a synchronous call.
	spawn func(fn func())
}

// NewViewTracker creates a new tracker.
func NewViewTracker(views repository.ViewRepository) *ViewTracker {
	return &ViewTracker{
		views: views,
		spawn: func(fn func()) { go fn() },
	}
}

// Track records a qualifying view of the entry in the background and returns
// immediately. Views by the author, and views of drafts or non-public
// entries, are not counted.
func (t *ViewTracker) Track(entry *models.Entry, viewer models.Session, remoteIP string) {
	if !qualifiesForView(entry, viewer) {
		return
	}

	view := &models.EntryView{EntryID: entry.ID}
	if viewer.Authenticated() {
		id := viewer.ExplorerID
		view.ViewerID = &id
		view.ViewerKey = models.ViewerKeyForExplorer(id)
	} else {
		if remoteIP == "" {
			return
		}
		view.ViewerIP = remoteIP
		view.ViewerKey = models.ViewerKeyForIP(remoteIP)
	}

	entryPublicID := entry.PublicID
	t.spawn(func() {
		// Detached from the request context on purpose: the client
		// disconnecting must not cancel the write.
		ctx, cancel := context.WithTimeout(context.Background(), viewRecordTimeout)
		defer cancel()
		t.record(ctx, entryPublicID, view)
	})
}

func (t *ViewTracker) record(ctx context.Context, entryPublicID string, view *models.EntryView) {
	unique, err := t.views.Record(ctx, view)
	if err != nil {
		observability.ViewFailures.Inc()
		middleware.Logger.WarnContext(ctx, "view recording failed",
			"entry_id", entryPublicID,
			"error", err.Error(),
		)
		return
	}
	if unique {
		observability.ViewsRecorded.WithLabelValues("unique").Inc()
	} else {
		observability.ViewsRecorded.WithLabelValues("repeat").Inc()
	}
}

// qualifiesForView applies the counting rules: only published public entries
// accumulate views, and authors do not count views of their own entries.
func qualifiesForView(entry *models.Entry, viewer models.Session) bool {
	if entry == nil || entry.IsDraft || !entry.Public {
		return false
	}
	return entry.AuthorID != viewer.ExplorerID
}
