package repositories

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

const classificationsTable = "classifications"

// ClassificationRepository implements the classification work queue: work
// selection, pending-row reservation, and result recording.
type ClassificationRepository struct {
	*Repository
}

func NewClassificationRepository(db database.DB, logger ectologger.Logger) *ClassificationRepository {
	return &ClassificationRepository{Repository: NewRepository(db, logger)}
}

// SelectCandidates returns photos with at least one non-null URL variant
// that either have no classification row for (provider, model,
// promptVersion), or have one in state `failed` whose retry_after has
// elapsed. Rows in `pending`, `succeeded`, or `permanent_failed` are
// excluded. Ordered by ascending photo_id for a deterministic, drainable
// queue.
func (r *ClassificationRepository) SelectCandidates(ctx context.Context, provider, model, promptVersion string, limit int) ([]WorkCandidate, error) {
	ctx, span := r.StartSpan(ctx, "ClassificationRepository.SelectCandidates")
	defer span.End()

	const query = `
		SELECT p.photo_id,
		       COALESCE(p.url_large, p.url_square, p.url_original) AS image_url,
		       COALESCE(o.notes, '') AS observer_notes,
		       COALESCE(c.attempt_count, 0) AS attempt_count
		FROM photos p
		JOIN observations o ON o.observation_id = p.observation_id
		LEFT JOIN classifications c
		       ON c.photo_id = p.photo_id
		      AND c.provider = $1
		      AND c.model = $2
		      AND c.prompt_version = $3
		WHERE COALESCE(p.url_large, p.url_square, p.url_original) IS NOT NULL
		  AND (c.id IS NULL OR (c.status = 'failed' AND (c.retry_after IS NULL OR c.retry_after <= now())))
		ORDER BY p.photo_id ASC
		LIMIT $4
	`

	rows, err := r.DB().QueryContext(ctx, query, provider, model, promptVersion, limit)
	if err != nil {
		r.LogError(ctx, "select", classificationsTable, err)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select classification candidates")
	}
	defer rows.Close()

	var out []WorkCandidate
	for rows.Next() {
		var c WorkCandidate
		if err := rows.Scan(&c.PhotoID, &c.ImageURL, &c.ObserverNotes, &c.AttemptCount); err != nil {
			r.LogError(ctx, "scan", classificationsTable, err)
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to scan classification candidate")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reserve upserts a pending classification row for the tuple, overwriting
// status back to pending and clearing last_error if the tuple re-enters the
// queue after a prior failure.
func (r *ClassificationRepository) Reserve(ctx context.Context, photoID int64, provider, model, promptVersion, promptHash, imageURL, notes string, notesTruncated bool) (int64, error) {
	ctx, span := r.StartSpan(ctx, "ClassificationRepository.Reserve")
	defer span.End()

	const query = `
		INSERT INTO classifications (photo_id, provider, model, prompt_version, prompt_hash, status, image_url, notes, notes_truncated)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8)
		ON CONFLICT (photo_id, provider, model, prompt_version) DO UPDATE SET
			status = 'pending',
			prompt_hash = EXCLUDED.prompt_hash,
			image_url = EXCLUDED.image_url,
			notes = EXCLUDED.notes,
			notes_truncated = EXCLUDED.notes_truncated,
			last_error = NULL,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.DB().QueryRowContext(ctx, query, photoID, provider, model, promptVersion, promptHash, imageURL, notes, notesTruncated).Scan(&id)
	if err != nil {
		r.LogError(ctx, "reserve", classificationsTable, err)
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to reserve classification row")
	}

	r.LogUpsert(ctx, classificationsTable, id)
	return id, nil
}

// MarkSucceeded transitions a row to the terminal succeeded state.
func (r *ClassificationRepository) MarkSucceeded(ctx context.Context, id int64, output any, rawResponse any) error {
	ctx, span := r.StartSpan(ctx, "ClassificationRepository.MarkSucceeded")
	defer span.End()

	const query = `
		UPDATE classifications SET
			status = 'succeeded',
			output = $1,
			raw_response = $2,
			retry_after = NULL,
			attempt_count = attempt_count + 1,
			last_attempt_at = NOW(),
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.DB().ExecContext(ctx, query,
		database.JSONB[any]{Data: output}, database.JSONB[any]{Data: rawResponse}, id)
	if err != nil {
		r.LogError(ctx, "mark_succeeded", classificationsTable, err)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark classification succeeded")
	}
	return nil
}

// MarkFailed transitions a row to failed (with a future retry_after) or, if
// permanent is set or the attempt about to be recorded reaches maxAttempts,
// to the terminal permanent_failed state.
func (r *ClassificationRepository) MarkFailed(ctx context.Context, id int64, permanent bool, maxAttempts int, retryAfter *time.Time, errMessage string, rawResponse any) error {
	ctx, span := r.StartSpan(ctx, "ClassificationRepository.MarkFailed")
	defer span.End()

	const query = `
		UPDATE classifications SET
			status = CASE WHEN $1 OR attempt_count + 1 >= $2 THEN 'permanent_failed' ELSE 'failed' END,
			retry_after = CASE WHEN $1 OR attempt_count + 1 >= $2 THEN NULL ELSE $3 END,
			attempt_count = attempt_count + 1,
			last_attempt_at = NOW(),
			last_error = $4,
			raw_response = COALESCE($5, raw_response),
			updated_at = NOW()
		WHERE id = $6
	`

	var rawArg any
	if rawResponse != nil {
		rawArg = database.JSONB[any]{Data: rawResponse}
	}

	_, err := r.DB().ExecContext(ctx, query, permanent, maxAttempts, retryAfter, errMessage, rawArg, id)
	if err != nil {
		r.LogError(ctx, "mark_failed", classificationsTable, err)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark classification failed")
	}
	return nil
}
