package repository

import (
	"context"
	"regexp"
	"testing"

	"waypost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewRepository_Record_UniqueView(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "entries" SET "views_count"=views_count + 1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "entry_views"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	unique, err := repo.Record(ctx, &models.EntryView{EntryID: 1, ViewerKey: "u:30"})
	require.NoError(t, err)
	assert.True(t, unique)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewRepository_Record_RepeatViewStillCounts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewViewRepository(db)
	ctx := context.Background()

	// The raw counter moves even when the dedup insert is a no-op.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "entries" SET "views_count"=views_count + 1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "entry_views"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	unique, err := repo.Record(ctx, &models.EntryView{EntryID: 1, ViewerKey: "ip:203.0.113.9"})
	require.NoError(t, err)
	assert.False(t, unique)
	assert.NoError(t, mock.ExpectationsWereMet())
}
