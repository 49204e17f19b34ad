// Package metrics provides the Prometheus metrics exposed by the /metrics
// endpoint when the run subcommand is started with metrics enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestPagesTotal tracks feed pages fetched, by outcome.
	IngestPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "monarch",
			Subsystem: "ingest",
			Name:      "pages_total",
			Help:      "Total number of feed pages fetched, by outcome",
		},
		[]string{"status"},
	)

	// IngestObservationsUpsertedTotal tracks observations upserted during ingestion.
	IngestObservationsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "monarch",
			Subsystem: "ingest",
			Name:      "observations_upserted_total",
			Help:      "Total number of observations upserted during ingestion",
		},
	)

	// IngestPhotosUpsertedTotal tracks photos upserted during ingestion.
	IngestPhotosUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "monarch",
			Subsystem: "ingest",
			Name:      "photos_upserted_total",
			Help:      "Total number of photos upserted during ingestion",
		},
	)

	// IngestRunDuration tracks the wall time of a full ingestion run.
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "monarch",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of an ingestion run in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// ClassificationsTotal tracks classification attempts by terminal outcome.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "monarch",
			Subsystem: "classify",
			Name:      "attempts_total",
			Help:      "Total number of classification attempts, by outcome",
		},
		[]string{"outcome"},
	)

	// ClassificationQueueDepth tracks how many eligible photos the latest
	// selection query returned, capped by that run's item limit.
	ClassificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "monarch",
			Subsystem: "classify",
			Name:      "queue_depth",
			Help:      "Number of eligible photos selected by the latest classification run (capped by its item limit)",
		},
	)

	// GatewayRequestDuration tracks outbound gateway call latency.
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "monarch",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound classification gateway requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	// FeedRequestDuration tracks outbound feed-client call latency.
	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "monarch",
			Subsystem: "feed",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound feed requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"status"},
	)
)

// RecordIngestRun records the outcome and duration of one ingestion run.
func RecordIngestRun(status string, observations, photos, pages int, durationSeconds float64) {
	IngestPagesTotal.WithLabelValues(status).Add(float64(pages))
	IngestObservationsUpsertedTotal.Add(float64(observations))
	IngestPhotosUpsertedTotal.Add(float64(photos))
	IngestRunDuration.Observe(durationSeconds)
}

// RecordClassification records one classification attempt's terminal outcome.
func RecordClassification(outcome string) {
	ClassificationsTotal.WithLabelValues(outcome).Inc()
}

// SetClassificationQueueDepth reports how many eligible photos the most
// recent selection query returned; the query is limited to the run's
// MaxItems, so this is not a count of the whole backlog.
func SetClassificationQueueDepth(depth int) {
	ClassificationQueueDepth.Set(float64(depth))
}

// RecordGatewayRequest observes one outbound gateway call's latency, by
// status label ("200", "429", "error", ...).
func RecordGatewayRequest(status string, durationSeconds float64) {
	GatewayRequestDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordFeedRequest observes one outbound feed call's latency, by status
// label ("200", "429", "error", ...).
func RecordFeedRequest(status string, durationSeconds float64) {
	FeedRequestDuration.WithLabelValues(status).Observe(durationSeconds)
}
