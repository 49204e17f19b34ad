package repositories

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

// StatsRepository answers the `stats` subcommand's terminal summary: row
// counts by classification status, the current backlog (same predicate as
// work selection), and 24-hour throughput counters.
type StatsRepository struct {
	*Repository
}

func NewStatsRepository(db database.DB, logger ectologger.Logger) *StatsRepository {
	return &StatsRepository{Repository: NewRepository(db, logger)}
}

func (r *StatsRepository) Snapshot(ctx context.Context, provider, model, promptVersion string) (*models.StatsSnapshot, error) {
	ctx, span := r.StartSpan(ctx, "StatsRepository.Snapshot")
	defer span.End()

	var snapshot models.StatsSnapshot

	const countsQuery = `
		SELECT
			(SELECT count(*) FROM observations),
			(SELECT count(*) FROM photos),
			(SELECT count(*) FROM classifications WHERE status = 'succeeded'),
			(SELECT count(*) FROM classifications WHERE status = 'failed'),
			(SELECT count(*) FROM classifications WHERE status = 'permanent_failed'),
			(SELECT count(*) FROM observations WHERE first_seen_at >= now() - interval '24 hours'),
			(SELECT count(*) FROM photos WHERE first_seen_at >= now() - interval '24 hours')
	`

	err := r.DB().QueryRowContext(ctx, countsQuery).Scan(
		&snapshot.Observations,
		&snapshot.Photos,
		&snapshot.ClassifiedSucceeded,
		&snapshot.ClassifiedFailed,
		&snapshot.ClassifiedPermanent,
		&snapshot.ObservationsLast24h,
		&snapshot.PhotosLast24h,
	)
	if err != nil {
		r.LogError(ctx, "snapshot", "stats", err)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to compute stats snapshot")
	}

	const backlogQuery = `
		SELECT count(*)
		FROM photos p
		LEFT JOIN classifications c
		       ON c.photo_id = p.photo_id
		      AND c.provider = $1
		      AND c.model = $2
		      AND c.prompt_version = $3
		WHERE COALESCE(p.url_large, p.url_square, p.url_original) IS NOT NULL
		  AND (c.id IS NULL OR (c.status = 'failed' AND (c.retry_after IS NULL OR c.retry_after <= now())))
	`

	if err := r.DB().QueryRowContext(ctx, backlogQuery, provider, model, promptVersion).Scan(&snapshot.Backlog); err != nil {
		r.LogError(ctx, "backlog", "stats", err)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to compute backlog")
	}

	return &snapshot, nil
}
