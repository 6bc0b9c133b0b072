// Package visibility decides whether a journal entry may be returned to a
// given viewer at all. The same rules are applied twice: in SQL as a list
// filter (repository.VisibleTo) and here as a post-fetch guard for
// single-entry lookups. A failed single-entry check must surface as
// NotFound, never Forbidden, so hidden content is not confirmed to exist.
package visibility

import (
	"waypost/internal/models"
)

// Policy is a pure predicate deciding entry visibility for one role.
type Policy func(entry *models.Entry, viewer models.Session) bool

// published reports whether the entry is publicly published.
func published(entry *models.Entry) bool {
	return entry.Public && !entry.IsDraft
}

// anonymous is the fallback policy for unauthenticated viewers and for any
// role this table does not know; an unknown role must never see more than
// an anonymous viewer would.
func anonymous(entry *models.Entry, _ models.Session) bool {
	return published(entry)
}

// policies maps each role to its visibility predicate. Adding a role means
// adding one entry here.
var policies = map[models.Role]Policy{
	models.RoleAdmin: func(_ *models.Entry, _ models.Session) bool {
		return true
	},
	models.RoleCreator: ownerOrPublished,
	models.RoleUser:    ownerOrPublished,
}

func ownerOrPublished(entry *models.Entry, viewer models.Session) bool {
	return entry.AuthorID == viewer.ExplorerID || published(entry)
}

// IsVisible reports whether the entry may be returned to the viewer.
// Soft-deleted entries are invisible to everyone, admins included: deletion
// is destructive state, not an access restriction.
func IsVisible(entry *models.Entry, viewer models.Session) bool {
	if entry == nil || entry.DeletedAt.Valid {
		return false
	}

	if !viewer.Authenticated() {
		return anonymous(entry, viewer)
	}

	policy, ok := policies[viewer.Role]
	if !ok {
		policy = anonymous
	}
	return policy(entry, viewer)
}
