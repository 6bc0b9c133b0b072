package service

import (
	"context"
	"testing"
	"time"

	"waypost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSponsorshipGate_CanViewSponsored(t *testing.T) {
	ctx := context.Background()
	sponsoredEntry := &models.Entry{ID: 1, AuthorID: 10, Sponsored: true}

	tests := []struct {
		name      string
		entry     *models.Entry
		viewer    models.Session
		hasActive bool
		allowed   bool
	}{
		{"non-sponsored entry needs no sponsorship", &models.Entry{ID: 2, AuthorID: 10}, models.Session{ExplorerID: 30}, false, true},
		{"author passes own gate", sponsoredEntry, models.Session{ExplorerID: 10, Role: models.RoleCreator}, false, true},
		{"admin passes every gate", sponsoredEntry, models.Session{ExplorerID: 40, Role: models.RoleAdmin}, false, true},
		{"anonymous denied", sponsoredEntry, models.Session{}, false, false},
		{"active sponsor allowed", sponsoredEntry, models.Session{ExplorerID: 30, Role: models.RoleUser}, true, true},
		{"non-sponsor denied", sponsoredEntry, models.Session{ExplorerID: 30, Role: models.RoleUser}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewSponsorshipGate(&stubSponsorshipRepo{
				HasActiveSponsorshipFn: func(_ context.Context, sponsorID, creatorID uint, _ time.Time) (bool, error) {
					assert.Equal(t, tt.viewer.ExplorerID, sponsorID)
					assert.Equal(t, tt.entry.AuthorID, creatorID)
					return tt.hasActive, nil
				},
			})

			allowed, err := gate.CanViewSponsored(ctx, tt.entry, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestSponsorshipGate_ExpiryIsDecidedAtCheckTime(t *testing.T) {
	// The gate hands its clock to the repository so an expired sponsorship
	// row stops qualifying the moment the check runs, without any sweeper.
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	gate := NewSponsorshipGate(&stubSponsorshipRepo{
		HasActiveSponsorshipFn: func(_ context.Context, _, _ uint, at time.Time) (bool, error) {
			seen = at
			return false, nil
		},
	})
	gate.now = func() time.Time { return now }

	entry := &models.Entry{ID: 1, AuthorID: 10, Sponsored: true}
	allowed, err := gate.CanViewSponsored(context.Background(), entry, models.Session{ExplorerID: 30, Role: models.RoleUser})
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, now, seen)
}

func TestSponsorshipGate_FilterSponsored(t *testing.T) {
	ctx := context.Background()
	viewer := models.Session{ExplorerID: 30, Role: models.RoleUser}

	entries := []*models.Entry{
		{ID: 1, AuthorID: 10},                  // plain
		{ID: 2, AuthorID: 10, Sponsored: true}, // sponsored by creator 10
		{ID: 3, AuthorID: 11, Sponsored: true}, // sponsored by creator 11
		{ID: 4, AuthorID: 30, Sponsored: true}, // viewer's own
		{ID: 5, AuthorID: 10, Sponsored: true}, // creator 10 again
	}

	calls := 0
	gate := NewSponsorshipGate(&stubSponsorshipRepo{
		ActiveSponsoredCreatorIDsFn: func(_ context.Context, sponsorID uint, creatorIDs []uint, _ time.Time) (map[uint]bool, error) {
			calls++
			assert.Equal(t, viewer.ExplorerID, sponsorID)
			assert.ElementsMatch(t, []uint{10, 11}, creatorIDs)
			return map[uint]bool{10: true}, nil
		},
	})

	filtered, err := gate.FilterSponsored(ctx, entries, viewer)
	require.NoError(t, err)

	// One batched query for the whole page.
	assert.Equal(t, 1, calls)

	ids := make([]uint, 0, len(filtered))
	for _, e := range filtered {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []uint{1, 2, 4, 5}, ids)
}

func TestSponsorshipGate_FilterSponsored_NoSponsoredEntriesSkipsQuery(t *testing.T) {
	gate := NewSponsorshipGate(&stubSponsorshipRepo{
		ActiveSponsoredCreatorIDsFn: func(context.Context, uint, []uint, time.Time) (map[uint]bool, error) {
			t.Fatal("unexpected sponsorship query")
			return nil, nil
		},
	})

	entries := []*models.Entry{{ID: 1, AuthorID: 10}, {ID: 2, AuthorID: 11}}
	filtered, err := gate.FilterSponsored(context.Background(), entries, models.Session{ExplorerID: 30})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestSponsorshipGate_FilterSponsored_AnonymousLosesAllSponsored(t *testing.T) {
	gate := NewSponsorshipGate(&stubSponsorshipRepo{})

	entries := []*models.Entry{
		{ID: 1, AuthorID: 10},
		{ID: 2, AuthorID: 10, Sponsored: true},
	}
	filtered, err := gate.FilterSponsored(context.Background(), entries, models.Session{})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, uint(1), filtered[0].ID)
}
