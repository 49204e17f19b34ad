package supervisor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylenessen/monarch-phenology-go/internal/classify"
	"github.com/kylenessen/monarch-phenology-go/internal/feedclient"
	"github.com/kylenessen/monarch-phenology-go/internal/ingest"
	"github.com/kylenessen/monarch-phenology-go/internal/models"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
	"github.com/kylenessen/monarch-phenology-go/internal/supervisor"
)

func testLogger() *zap.Logger {
	l, _ := zap.NewDevelopment()
	return l
}

type noopObservationRepo struct{}

func (noopObservationRepo) Upsert(ctx context.Context, obs *models.Observation) error { return nil }

type noopPhotoRepo struct{}

func (noopPhotoRepo) Upsert(ctx context.Context, photo *models.Photo) error { return nil }

type noopSyncStateRepo struct{}

func (noopSyncStateRepo) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}
func (noopSyncStateRepo) Set(ctx context.Context, key, value string) error { return nil }

type noopClassificationRepo struct{}

func (noopClassificationRepo) SelectCandidates(ctx context.Context, provider, model, promptVersion string, limit int) ([]repositories.WorkCandidate, error) {
	return nil, nil
}
func (noopClassificationRepo) Reserve(ctx context.Context, photoID int64, provider, model, promptVersion, promptHash, imageURL, notes string, notesTruncated bool) (int64, error) {
	return 0, nil
}
func (noopClassificationRepo) MarkSucceeded(ctx context.Context, id int64, output any, rawResponse any) error {
	return nil
}
func (noopClassificationRepo) MarkFailed(ctx context.Context, id int64, permanent bool, maxAttempts int, retryAfter *time.Time, errMessage string, rawResponse any) error {
	return nil
}

func emptyFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(feedclient.Page{Results: nil, TotalCount: 0})
	}))
}

func TestSupervisor_Run_StopsPromptlyOnContextCancel(t *testing.T) {
	srv := emptyFeedServer(t)
	defer srv.Close()

	logger := zapadapter.NewZapEctoLogger(testLogger(), nil)
	feed := feedclient.New(feedclient.Config{BaseURL: srv.URL, MaxRetries: 0}, logger)
	ingestEngine := ingest.NewEngine(feed, noopObservationRepo{}, noopPhotoRepo{}, noopSyncStateRepo{}, logger)
	classifyEngine := classify.NewEngine(noopClassificationRepo{}, logger)

	sup := supervisor.New(ingestEngine, classifyEngine, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, supervisor.Config{
		IngestInterval:   time.Minute,
		ClassifyInterval: 50 * time.Millisecond,
		ClassifyEnabled:  true,
	}) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after context cancellation")
	}
}

func TestSupervisor_Stop_UnblocksRun(t *testing.T) {
	srv := emptyFeedServer(t)
	defer srv.Close()

	logger := zapadapter.NewZapEctoLogger(testLogger(), nil)
	feed := feedclient.New(feedclient.Config{BaseURL: srv.URL, MaxRetries: 0}, logger)
	ingestEngine := ingest.NewEngine(feed, noopObservationRepo{}, noopPhotoRepo{}, noopSyncStateRepo{}, logger)
	classifyEngine := classify.NewEngine(noopClassificationRepo{}, logger)

	sup := supervisor.New(ingestEngine, classifyEngine, logger)

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(context.Background(), supervisor.Config{
			IngestInterval:   time.Minute,
			ClassifyInterval: time.Minute,
			ClassifyEnabled:  true,
		})
	}()

	time.Sleep(20 * time.Millisecond)
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sup.Stop(stopCtx))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
