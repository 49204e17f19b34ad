package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

func TestStatsRepository_Snapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := getTestDB(t)
	truncateAll(t, db)
	ctx := getTestContext()
	seedPhoto(t, db, 6001, 7001, "")
	seedPhoto(t, db, 6002, 7002, "")

	classRepo := repositories.NewClassificationRepository(db, getTestLogger())
	id, err := classRepo.Reserve(ctx, 7001, testProvider, testModel, testPromptVersion, "hash", "https://example.com/large.jpg", "", false)
	require.NoError(t, err)
	require.NoError(t, classRepo.MarkSucceeded(ctx, id, map[string]any{}, map[string]any{}))

	statsRepo := repositories.NewStatsRepository(db, getTestLogger())
	snapshot, err := statsRepo.Snapshot(ctx, testProvider, testModel, testPromptVersion)
	require.NoError(t, err)

	assert.EqualValues(t, 2, snapshot.Observations)
	assert.EqualValues(t, 2, snapshot.Photos)
	assert.EqualValues(t, 1, snapshot.ClassifiedSucceeded)
	assert.EqualValues(t, 1, snapshot.Backlog, "the unclassified photo must count toward backlog")
}
