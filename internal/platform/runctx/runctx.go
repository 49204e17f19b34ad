// Package runctx threads a per-invocation correlation id through context.Context,
// the way the teacher stack threads a request id. The ingest and classify
// engines mint one per run and include it in the run's starting log line;
// other log lines written during the run do not carry it.
package runctx

import "context"

type contextKey string

const runIDKey = contextKey("run_id")

// WithRunID returns a copy of ctx carrying runID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID extracts the run id set by WithRunID, or "" if none is set.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
