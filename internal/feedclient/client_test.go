package feedclient_test

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

	"github.com/kylenessen/monarch-phenology-go/internal/feedclient"
)

func testLogger() *zap.Logger {
	l, _ := zap.NewDevelopment()
	return l
}

func TestClient_ListObservations_RetriesOnRateLimitThenSucceeds(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(feedclient.Page{
			Results:    []feedclient.Observation{{"id": float64(1)}},
			TotalCount: 1,
		})
	}))
	defer srv.Close()

	c := feedclient.New(feedclient.Config{
		BaseURL:             srv.URL,
		MaxRetries:          2,
		RetryBackoffSeconds: 1,
		SleepSeconds:        0,
	}, zapadapter.NewZapEctoLogger(testLogger(), nil))

	page, err := c.ListObservations(context.Background(), feedclient.ListParams{
		TaxonID: 48662,
		PerPage: 200,
		Page:    1,
		OrderBy: "updated_at",
		Order:   "asc",
	})

	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 2, attempts)
}

func TestClient_ListObservations_FailsImmediatelyOnOtherClientError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := feedclient.New(feedclient.Config{
		BaseURL:             srv.URL,
		MaxRetries:          3,
		RetryBackoffSeconds: 1,
		SleepSeconds:        0,
	}, zapadapter.NewZapEctoLogger(testLogger(), nil))

	_, err := c.ListObservations(context.Background(), feedclient.ListParams{TaxonID: 1, PerPage: 1, Page: 1})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a non-429 4xx must fail without retrying")
}

func TestClient_ListObservations_ExhaustsRetriesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := feedclient.New(feedclient.Config{
		BaseURL:             srv.URL,
		MaxRetries:          2,
		RetryBackoffSeconds: 0,
		SleepSeconds:        0,
	}, zapadapter.NewZapEctoLogger(testLogger(), nil))
	start := time.Now()

	_, err := c.ListObservations(context.Background(), feedclient.ListParams{TaxonID: 1, PerPage: 1, Page: 1})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
