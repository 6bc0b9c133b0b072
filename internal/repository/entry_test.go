package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"waypost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRepository_CountEarlierSiblings(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	date := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	// Ties on the journal date break by internal id, so two entries on the
	// same day still get stable, distinct ordinals.
	mock.ExpectQuery(regexp.QuoteMeta(`(date < $3 OR (date = $4 AND id < $5))`)).
		WithArgs(7, false, date, date, 42).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountEarlierSiblings(ctx, 7, date, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepository_List_AppliesVisibilityScope(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		viewer  models.Session
		wantSQL string
	}{
		{
			name:    "anonymous sees published only",
			viewer:  models.Session{},
			wantSQL: `entries.public = TRUE AND entries.is_draft = FALSE`,
		},
		{
			name:    "authenticated sees own plus published",
			viewer:  models.Session{ExplorerID: 30, Role: models.RoleUser},
			wantSQL: `entries.author_id = $3 OR (entries.public = TRUE AND entries.is_draft = FALSE)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery(regexp.QuoteMeta(tt.wantSQL)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}))

			_, err := repo.List(ctx, EntryFilter{Limit: 20}, tt.viewer)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEntryRepository_List_AdminSeesEverything(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEntryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY entries.date DESC, entries.id DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}).
			AddRow(2, "Private entry", 10).
			AddRow(1, "Public entry", 11))
	// Author preload.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "explorers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(10, "nils_nomad").
			AddRow(11, "mira_mountains"))

	entries, err := repo.List(context.Background(), EntryFilter{Limit: 20},
		models.Session{ExplorerID: 40, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryCacheRoundTripKeepsInternalIDs(t *testing.T) {
	expeditionID := uint(5)
	entry := &models.Entry{
		ID:           7,
		PublicID:     "0b8f3c1e-8e77-4d5c-9a43-5a0f9a34d101",
		Title:        "Rain day in Lillehammer",
		AuthorID:     3,
		ExpeditionID: &expeditionID,
		Public:       true,
		ViewsCount:   12,
	}

	// Same round trip the cache-aside helper performs. The API JSON hides
	// the internal ids, so the wrapper must carry them explicitly.
	payload, err := json.Marshal(newCachedEntry(entry))
	require.NoError(t, err)
	var cached cachedEntry
	require.NoError(t, json.Unmarshal(payload, &cached))

	got := cached.restore()
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, uint(3), got.AuthorID)
	require.NotNil(t, got.ExpeditionID)
	assert.Equal(t, uint(5), *got.ExpeditionID)
	assert.Equal(t, entry.PublicID, got.PublicID)
	assert.Equal(t, 12, got.ViewsCount)
}
