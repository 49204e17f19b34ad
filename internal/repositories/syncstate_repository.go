package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

const syncStateTable = "sync_state"

var syncStateStruct = database.NewStruct(new(models.SyncState))

// SyncStateRepository stores the ingestion cursor as a key/value pair.
type SyncStateRepository struct {
	*Repository
}

func NewSyncStateRepository(db database.DB, logger ectologger.Logger) *SyncStateRepository {
	return &SyncStateRepository{Repository: NewRepository(db, logger)}
}

// Get returns the stored value for key, and false if no row exists.
func (r *SyncStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := r.StartSpan(ctx, "SyncStateRepository.Get")
	defer span.End()

	sb := syncStateStruct.SelectFrom(syncStateTable)
	sb.Where(sb.Equal("key", key))

	query, args := sb.Build()
	var state models.SyncState
	err := r.DB().GetContext(ctx, &state, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.LogError(ctx, "get", syncStateTable, err)
		return "", false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read sync state")
	}

	return state.Value, true, nil
}

// Set upserts key to value.
func (r *SyncStateRepository) Set(ctx context.Context, key, value string) error {
	ctx, span := r.StartSpan(ctx, "SyncStateRepository.Set")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(syncStateTable).Cols("key", "value").Values(key, value)
	ub := ib.OnConflict("key")
	ub.Assign("value", database.Excluded("value"))

	query, args := ib.Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		r.LogError(ctx, "upsert", syncStateTable, err)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to persist sync state")
	}

	r.LogUpsert(ctx, syncStateTable, key)
	return nil
}
