package repository

import (
	"context"
	"regexp"
	"testing"

	"waypost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func entryReadBackRows(likes, bookmarks int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"likes_count", "bookmarks_count", "public_id", "author_id"}).
		AddRow(likes, bookmarks, "0b8f3c1e-8e77-4d5c-9a43-5a0f9a34d101", 10)
}

func TestEngagementRepository_Toggle_CreatesLike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	// No existing row to remove.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WithArgs(1, 30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Insert wins the unique constraint.
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "entries" SET "likes_count"=likes_count + $1`)).
		WithArgs(1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "likes_count","bookmarks_count","public_id","author_id" FROM "entries"`)).
		WillReturnRows(entryReadBackRows(6, 2))
	mock.ExpectCommit()

	result, err := repo.Toggle(ctx, 1, 30, models.EngagementLike)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 6, result.Count)
	assert.Equal(t, uint(10), result.AuthorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_Toggle_RemovesLike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WithArgs(1, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Decrement with the GREATEST floor guard.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "entries" SET "likes_count"=GREATEST(likes_count + $1, 0)`)).
		WithArgs(-1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "likes_count","bookmarks_count","public_id","author_id" FROM "entries"`)).
		WillReturnRows(entryReadBackRows(5, 2))
	mock.ExpectCommit()

	result, err := repo.Toggle(ctx, 1, 30, models.EngagementLike)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, 5, result.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_Toggle_BookmarkMovesExplorerCounter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "bookmarks"`)).
		WithArgs(1, 30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "bookmarks"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "entries" SET "bookmarks_count"=bookmarks_count + $1`)).
		WithArgs(1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The explorer's own bookmark counter moves in the same transaction.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "explorers" SET "bookmarks_count"=bookmarks_count + $1`)).
		WithArgs(1, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "likes_count","bookmarks_count","public_id","author_id" FROM "entries"`)).
		WillReturnRows(entryReadBackRows(5, 3))
	mock.ExpectCommit()

	result, err := repo.Toggle(ctx, 1, 30, models.EngagementBookmark)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, 3, result.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepository_Toggle_ConflictRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WithArgs(1, 30).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// A concurrent toggle inserted the row between our delete and insert;
	// ON CONFLICT DO NOTHING reports zero affected rows.
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Toggle(ctx, 1, 30, models.EngagementLike)
	assert.ErrorIs(t, err, ErrToggleConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
