package repositories

import (
	"context"
	"time"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
)

// ObservationRepo persists the observations upserted during ingestion.
type ObservationRepo interface {
	Upsert(ctx context.Context, obs *models.Observation) error
}

// PhotoRepo persists the photos attached to an observation.
type PhotoRepo interface {
	Upsert(ctx context.Context, photo *models.Photo) error
}

// SyncStateRepo stores the ingestion cursor.
type SyncStateRepo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// WorkCandidate is a photo eligible for (re)classification, joined with the
// notes from its parent observation.
type WorkCandidate struct {
	PhotoID       int64
	ImageURL      string
	ObserverNotes string
	AttemptCount  int
}

// ClassificationRepo implements the classification work queue: selection,
// reservation, and result recording described in the classification engine.
type ClassificationRepo interface {
	// SelectCandidates returns up to limit photos eligible for classification
	// under (provider, model, promptVersion), ordered by ascending photo id.
	SelectCandidates(ctx context.Context, provider, model, promptVersion string, limit int) ([]WorkCandidate, error)

	// Reserve upserts a pending classification row for the tuple, clearing
	// any prior error, and returns the row's id.
	Reserve(ctx context.Context, photoID int64, provider, model, promptVersion, promptHash, imageURL, notes string, notesTruncated bool) (int64, error)

	// MarkSucceeded transitions a row to succeeded with its parsed output and
	// the verbatim raw response.
	MarkSucceeded(ctx context.Context, id int64, output any, rawResponse any) error

	// MarkFailed transitions a row to failed or permanent_failed depending on
	// whether permanent is set or attempt_count+1 reaches maxAttempts.
	MarkFailed(ctx context.Context, id int64, permanent bool, maxAttempts int, retryAfter *time.Time, errMessage string, rawResponse any) error
}

// StatsRepo answers the `stats` subcommand's terminal summary query.
type StatsRepo interface {
	Snapshot(ctx context.Context, provider, model, promptVersion string) (*models.StatsSnapshot, error)
}
