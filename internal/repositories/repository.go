// Package repositories implements the persistence layer: schema bootstrap,
// cursor storage, and the upsert/select queries observations, photos, and
// classifications need.
package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/trace"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/tracing"
)

// Repository is the common base every concrete repository embeds: a database
// handle and a logger. There is no tenant concept here — this system assumes
// a single writer process; the queue queries take no row locks.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) DB() database.DB {
	return r.db
}

func (r *Repository) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, name)
}

func (r *Repository) LogError(ctx context.Context, operation, table string, err error) {
	fields := tracing.ContextFields(ctx)
	fields["operation"] = operation
	fields["table"] = table
	r.logger.WithContext(ctx).WithError(err).WithFields(fields).Error("repository operation failed")
}

func (r *Repository) LogUpsert(ctx context.Context, table string, id any) {
	fields := tracing.ContextFields(ctx)
	fields["table"] = table
	fields["id"] = id
	r.logger.WithContext(ctx).WithFields(fields).Debug("upserted record")
}
