// Package ingest drains the observation feed into the observations and
// photos tables, advancing a persisted cursor as it goes.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/kylenessen/monarch-phenology-go/internal/feedclient"
	"github.com/kylenessen/monarch-phenology-go/internal/mapper"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/metrics"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/runctx"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

// cursorStateKey is the sync_state row holding the last successfully
// ingested observation's updated_at timestamp.
const cursorStateKey = "feed.last_updated_since"

// Config controls a single ingestion run.
type Config struct {
	TaxonID      int
	PlaceID      int
	QualityGrade string
	PerPage      int

	BackfillDays   int
	OverlapHours   int
	MaxPagesPerRun int
}

// Result summarizes a completed run.
type Result struct {
	Observations int
	Photos       int
	Pages        int
}

// Engine runs ingestion against a feed client and the observation/photo/
// cursor repositories.
type Engine struct {
	feed         *feedclient.Client
	observations repositories.ObservationRepo
	photos       repositories.PhotoRepo
	syncState    repositories.SyncStateRepo
	logger       ectologger.Logger
}

func NewEngine(feed *feedclient.Client, observations repositories.ObservationRepo, photos repositories.PhotoRepo, syncState repositories.SyncStateRepo, logger ectologger.Logger) *Engine {
	return &Engine{feed: feed, observations: observations, photos: photos, syncState: syncState, logger: logger}
}

// Run reads the persisted cursor (or backfills BackfillDays into the past
// if none exists), applies an overlap window to tolerate late edits, then
// pages through the feed until a page comes back empty or MaxPagesPerRun is
// reached, upserting every observation and its photos as it goes. The
// cursor advances to the newest updated_at seen, once, at the end of the
// run — a partial run that errors mid-page leaves the previous cursor in
// place, so the next run safely re-covers the same ground.
func (e *Engine) Run(ctx context.Context, cfg Config) (Result, error) {
	ctx = runctx.WithRunID(ctx, uuid.NewString())
	e.logger.WithContext(ctx).Infof("starting ingest run %s", runctx.RunID(ctx))

	start := time.Now()
	result, err := e.run(ctx, cfg)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordIngestRun(status, result.Observations, result.Photos, result.Pages, time.Since(start).Seconds())

	return result, err
}

func (e *Engine) run(ctx context.Context, cfg Config) (Result, error) {
	since, err := e.computeUpdatedSince(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	var result Result
	var maxUpdatedAt time.Time
	page := 1

	for {
		if cfg.MaxPagesPerRun > 0 && page > cfg.MaxPagesPerRun {
			break
		}

		feedPage, err := e.feed.ListObservations(ctx, feedclient.ListParams{
			TaxonID:      cfg.TaxonID,
			PlaceID:      cfg.PlaceID,
			QualityGrade: cfg.QualityGrade,
			PerPage:      cfg.PerPage,
			Page:         page,
			UpdatedSince: since,
			OrderBy:      "updated_at",
			Order:        "asc",
		})
		if err != nil {
			return result, fmt.Errorf("list observations page %d: %w", page, err)
		}
		if len(feedPage.Results) == 0 {
			break
		}

		pageMax, err := e.ingestPage(ctx, feedPage.Results, &result)
		if err != nil {
			return result, fmt.Errorf("ingest page %d: %w", page, err)
		}
		if pageMax.After(maxUpdatedAt) {
			maxUpdatedAt = pageMax
		}

		result.Pages++
		page++
	}

	if !maxUpdatedAt.IsZero() {
		if err := e.syncState.Set(ctx, cursorStateKey, formatCursor(maxUpdatedAt)); err != nil {
			return result, fmt.Errorf("advance cursor: %w", err)
		}
	}

	return result, nil
}

// ingestPage maps and upserts every observation and photo on one feed page,
// returning the newest updated_at seen on the page. Each observation and
// photo is upserted independently; the upsert itself is idempotent, so a
// page that errors partway through can be safely re-ingested on retry.
func (e *Engine) ingestPage(ctx context.Context, raws []feedclient.Observation, result *Result) (time.Time, error) {
	var pageMax time.Time

	for _, raw := range raws {
		obs, err := mapper.MapObservation(raw)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).Warnf("skipping observation with unmappable payload")
			continue
		}

		if err := e.observations.Upsert(ctx, obs); err != nil {
			return pageMax, fmt.Errorf("upsert observation %d: %w", obs.ObservationID, err)
		}
		result.Observations++

		photos, _ := raw["photos"].([]any)
		for idx, p := range photos {
			photoRaw, ok := p.(map[string]any)
			if !ok {
				continue
			}
			photo, err := mapper.MapPhoto(obs.ObservationID, photoRaw, idx)
			if err != nil {
				e.logger.WithContext(ctx).WithError(err).Warnf("skipping photo with unmappable payload on observation %d", obs.ObservationID)
				continue
			}
			if err := e.photos.Upsert(ctx, photo); err != nil {
				return pageMax, fmt.Errorf("upsert photo %d: %w", photo.PhotoID, err)
			}
			result.Photos++
		}

		if obs.UpdatedAtRemote != nil && obs.UpdatedAtRemote.After(pageMax) {
			pageMax = *obs.UpdatedAtRemote
		}
	}

	return pageMax, nil
}

// computeUpdatedSince reads the persisted cursor, falling back to
// BackfillDays into the past on first run, then subtracts OverlapHours so
// observations edited just before the last run are re-fetched and upserted
// (idempotently) rather than missed.
func (e *Engine) computeUpdatedSince(ctx context.Context, cfg Config) (time.Time, error) {
	raw, ok, err := e.syncState.Get(ctx, cursorStateKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("read cursor: %w", err)
	}

	var last time.Time
	if ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			last = parsed
		}
	}
	if last.IsZero() {
		last = time.Now().UTC().AddDate(0, 0, -cfg.BackfillDays)
	}

	return last.Add(-time.Duration(cfg.OverlapHours) * time.Hour), nil
}

func formatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
