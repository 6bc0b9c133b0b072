package repository

import (
	"encoding/json"
	"testing"

	"waypost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplorerCacheRoundTripKeepsInternalID(t *testing.T) {
	explorer := &models.Explorer{
		ID:       9,
		PublicID: "7f9d2a40-1c3b-4e8f-b6a2-90d14c5e7a22",
		Username: "nils_nomad",
		Password: "bcrypt-hash",
		Role:     models.RoleCreator,
	}

	payload, err := json.Marshal(newCachedExplorer(explorer))
	require.NoError(t, err)
	var cached cachedExplorer
	require.NoError(t, json.Unmarshal(payload, &cached))

	got := cached.restore()
	// The internal id survives so a refreshed session can mint a token
	// with a real subject claim.
	assert.Equal(t, uint(9), got.ID)
	assert.Equal(t, models.RoleCreator, got.Role)
	// The password hash deliberately does not: credential checks go to
	// the database, never through the cache.
	assert.Empty(t, got.Password)
}
