package service

import (
	"context"
	"errors"
	"testing"

	"waypost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncTracker records views on the calling goroutine so tests can assert
// immediately after Track returns.
func syncTracker(views *stubViewRepo) *ViewTracker {
	tracker := NewViewTracker(views)
	tracker.spawn = func(fn func()) { fn() }
	return tracker
}

func TestViewTracker_AuthenticatedView(t *testing.T) {
	var recorded *models.EntryView
	tracker := syncTracker(&stubViewRepo{
		RecordFn: func(_ context.Context, view *models.EntryView) (bool, error) {
			recorded = view
			return true, nil
		},
	})

	entry := &models.Entry{ID: 5, AuthorID: 10, Public: true}
	tracker.Track(entry, models.Session{ExplorerID: 30, Role: models.RoleUser}, "203.0.113.9")

	require.NotNil(t, recorded)
	assert.Equal(t, uint(5), recorded.EntryID)
	assert.Equal(t, "u:30", recorded.ViewerKey)
	require.NotNil(t, recorded.ViewerID)
	assert.Equal(t, uint(30), *recorded.ViewerID)
	// The dedup key wins over the IP for signed-in viewers.
	assert.Empty(t, recorded.ViewerIP)
}

func TestViewTracker_AnonymousViewKeyedByIP(t *testing.T) {
	var recorded *models.EntryView
	tracker := syncTracker(&stubViewRepo{
		RecordFn: func(_ context.Context, view *models.EntryView) (bool, error) {
			recorded = view
			return false, nil
		},
	})

	entry := &models.Entry{ID: 5, AuthorID: 10, Public: true}
	tracker.Track(entry, models.Session{}, "203.0.113.9")

	require.NotNil(t, recorded)
	assert.Equal(t, "ip:203.0.113.9", recorded.ViewerKey)
	assert.Nil(t, recorded.ViewerID)
}

func TestViewTracker_NonQualifyingViewsSkipped(t *testing.T) {
	tracker := syncTracker(&stubViewRepo{
		RecordFn: func(context.Context, *models.EntryView) (bool, error) {
			t.Fatal("view should not be recorded")
			return false, nil
		},
	})

	// Author's own view.
	tracker.Track(&models.Entry{ID: 5, AuthorID: 10, Public: true}, models.Session{ExplorerID: 10}, "")
	// Draft.
	tracker.Track(&models.Entry{ID: 5, AuthorID: 10, Public: true, IsDraft: true}, models.Session{ExplorerID: 30}, "")
	// Not public.
	tracker.Track(&models.Entry{ID: 5, AuthorID: 10, Public: false}, models.Session{ExplorerID: 30}, "")
	// Anonymous without an address has no dedup identity.
	tracker.Track(&models.Entry{ID: 5, AuthorID: 10, Public: true}, models.Session{}, "")
	// Nil entry.
	tracker.Track(nil, models.Session{ExplorerID: 30}, "203.0.113.9")
}

func TestViewTracker_FailureIsSwallowed(t *testing.T) {
	tracker := syncTracker(&stubViewRepo{
		RecordFn: func(context.Context, *models.EntryView) (bool, error) {
			return false, errors.New("connection reset")
		},
	})

	entry := &models.Entry{ID: 5, AuthorID: 10, Public: true}
	// Must not panic or surface the error.
	tracker.Track(entry, models.Session{ExplorerID: 30}, "")
}
