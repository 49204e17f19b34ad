package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/health"
	"github.com/kylenessen/monarch-phenology-go/internal/supervisor"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ingestion and classification forever on their own schedules",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.MetricsEnabled {
		go a.serveMetrics(ctx)
	}

	classifyCfg, err := a.classifyConfig(a.cfg.ClassifyMaxWorkers * 10)
	if err != nil {
		return err
	}

	sup := supervisor.New(a.ingestEngine(), a.classifyEngine(), a.logger)
	return sup.Run(ctx, supervisor.Config{
		IngestInterval:   a.cfg.IngestInterval(),
		ClassifyInterval: a.cfg.ClassifyInterval(),
		IngestConfig:     a.ingestConfig(),
		ClassifyConfig:   classifyCfg,
		ClassifyEnabled:  true,
	})
}

// serveMetrics exposes Prometheus metrics plus liveness/readiness probes on
// cfg.MetricsAddr until ctx is cancelled. It runs best-effort: a listener
// failure is logged, not fatal, since metrics are observability, not the
// pipeline itself.
func (a *app) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	checker := health.NewChecker(a.sqlxDB, appVersion)
	checker.SetReady(true)
	checker.RegisterRoutes(mux)

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.logger.WithError(err).Error("metrics server stopped unexpectedly")
	}
}
