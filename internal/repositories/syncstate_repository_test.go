package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

func TestSyncStateRepository_GetSet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := getTestDB(t)
	truncateAll(t, db)
	repo := repositories.NewSyncStateRepository(db, getTestLogger())
	ctx := getTestContext()

	_, ok, err := repo.Get(ctx, models.LastUpdatedSinceKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, models.LastUpdatedSinceKey, "2026-01-01T00:00:00Z"))

	value, ok, err := repo.Get(ctx, models.LastUpdatedSinceKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-01-01T00:00:00Z", value)

	require.NoError(t, repo.Set(ctx, models.LastUpdatedSinceKey, "2026-02-01T00:00:00Z"))
	value, ok, err = repo.Get(ctx, models.LastUpdatedSinceKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-02-01T00:00:00Z", value)
}
