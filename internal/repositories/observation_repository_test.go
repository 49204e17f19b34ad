package repositories_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

func TestObservationRepository_UpsertRetainsFirstSeenAt(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := getTestDB(t)
	truncateAll(t, db)
	logger := getTestLogger()
	repo := repositories.NewObservationRepository(db, logger)
	ctx := getTestContext()

	observedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	obs := &models.Observation{
		ObservationID:  1001,
		ScientificName: strPtr("Danaus plexippus"),
		CommonName:     strPtr("Monarch"),
		QualityGrade:   strPtr("research"),
		ObservedAt:     &observedAt,
		User:           strPtr("jdoe"),
		Raw:            database.JSONB[any]{Data: map[string]any{"id": 1001}},
	}

	require.NoError(t, repo.Upsert(ctx, obs))

	var firstSeen time.Time
	require.NoError(t, db.GetContext(ctx, &firstSeen, "SELECT first_seen_at FROM observations WHERE observation_id = $1", obs.ObservationID))

	time.Sleep(10 * time.Millisecond)

	obs.CommonName = strPtr("Monarch butterfly")
	require.NoError(t, repo.Upsert(ctx, obs))

	var commonName string
	var firstSeenAfter, lastSeenAfter time.Time
	require.NoError(t, db.GetContext(ctx, &commonName, "SELECT common_name FROM observations WHERE observation_id = $1", obs.ObservationID))
	require.NoError(t, db.GetContext(ctx, &firstSeenAfter, "SELECT first_seen_at FROM observations WHERE observation_id = $1", obs.ObservationID))
	require.NoError(t, db.GetContext(ctx, &lastSeenAfter, "SELECT last_seen_at FROM observations WHERE observation_id = $1", obs.ObservationID))

	assert.Equal(t, "Monarch butterfly", commonName)
	assert.True(t, firstSeen.Equal(firstSeenAfter), "first_seen_at must not change on conflict")
	assert.True(t, lastSeenAfter.After(firstSeen), "last_seen_at must advance on conflict")
}
