package visibility

import (
	"testing"
	"time"

	"waypost/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func entry(authorID uint, public, draft bool) *models.Entry {
	return &models.Entry{ID: 1, AuthorID: authorID, Public: public, IsDraft: draft}
}

func TestIsVisible(t *testing.T) {
	anonymous := models.Session{}
	author := models.Session{ExplorerID: 10, Role: models.RoleUser}
	creator := models.Session{ExplorerID: 20, Role: models.RoleCreator}
	other := models.Session{ExplorerID: 30, Role: models.RoleUser}
	admin := models.Session{ExplorerID: 40, Role: models.RoleAdmin}

	tests := []struct {
		name    string
		entry   *models.Entry
		viewer  models.Session
		visible bool
	}{
		{"published entry, anonymous", entry(10, true, false), anonymous, true},
		{"published entry, other user", entry(10, true, false), other, true},
		{"published entry, admin", entry(10, true, false), admin, true},

		{"draft, anonymous", entry(10, true, true), anonymous, false},
		{"draft, other user", entry(10, true, true), other, false},
		{"draft, author", entry(10, true, true), author, true},
		{"draft, admin", entry(10, true, true), admin, true},

		{"private, anonymous", entry(10, false, false), anonymous, false},
		{"private, other user", entry(10, false, false), other, false},
		{"private, author", entry(10, false, false), author, true},
		{"private, admin", entry(10, false, false), admin, true},

		{"creator sees own draft", entry(20, false, true), creator, true},
		{"creator does not see others' drafts", entry(10, false, true), creator, false},

		{"nil entry", nil, admin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, IsVisible(tt.entry, tt.viewer))
		})
	}
}

func TestIsVisible_SoftDeletedHiddenFromEveryone(t *testing.T) {
	deleted := entry(10, true, false)
	deleted.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	for _, viewer := range []models.Session{
		{},
		{ExplorerID: 10, Role: models.RoleUser},
		{ExplorerID: 40, Role: models.RoleAdmin},
	} {
		assert.False(t, IsVisible(deleted, viewer))
	}
}

func TestIsVisible_UnknownRoleFallsBackToAnonymous(t *testing.T) {
	weird := models.Session{ExplorerID: 10, Role: models.Role("SUPERUSER")}

	// Published content stays visible, but ownership no longer grants access.
	assert.True(t, IsVisible(entry(99, true, false), weird))
	assert.False(t, IsVisible(entry(10, false, false), weird))
}
