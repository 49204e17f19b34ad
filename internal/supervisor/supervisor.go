// Package supervisor runs ingestion on its own interval and classification
// on its own interval, forever, until asked to stop.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/classify"
	"github.com/kylenessen/monarch-phenology-go/internal/ingest"
)

// Config controls the two independent timers the supervisor drives.
type Config struct {
	IngestInterval   time.Duration
	ClassifyInterval time.Duration
	IngestConfig     ingest.Config
	ClassifyConfig   classify.Config
	ClassifyEnabled  bool
}

// Supervisor runs ingestion and classification in two concurrent loops on
// independent schedules inside a single long-lived process, without either
// one blocking the other's cadence.
type Supervisor struct {
	ingestEngine   *ingest.Engine
	classifyEngine *classify.Engine
	logger         ectologger.Logger

	stopCh   chan struct{}
	stoppedC chan struct{}
	mu       sync.Mutex
	running  bool
}

func New(ingestEngine *ingest.Engine, classifyEngine *classify.Engine, logger ectologger.Logger) *Supervisor {
	return &Supervisor{
		ingestEngine:   ingestEngine,
		classifyEngine: classifyEngine,
		logger:         logger,
		stopCh:         make(chan struct{}),
		stoppedC:       make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called, running an ingest
// pass whenever now >= nextIngest and a classify pass every ClassifyInterval,
// each on its own timer so a slow classification batch never delays the
// next ingest poll and vice versa.
func (s *Supervisor) Run(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.stoppedC)
	}()

	ingestInterval := cfg.IngestInterval
	if ingestInterval < 60*time.Second {
		ingestInterval = 60 * time.Second
	}
	classifyInterval := cfg.ClassifyInterval
	if classifyInterval < time.Second {
		classifyInterval = time.Second
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runIngestLoop(ctx, cfg, ingestInterval)
	}()

	if cfg.ClassifyEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runClassifyLoop(ctx, cfg, classifyInterval)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (s *Supervisor) runIngestLoop(ctx context.Context, cfg Config, interval time.Duration) {
	nextIngest := time.Now()
	for {
		now := time.Now()
		wait := nextIngest.Sub(now)
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-time.After(wait):
		}

		if time.Now().Before(nextIngest) {
			continue
		}

		result, err := s.ingestEngine.Run(ctx, cfg.IngestConfig)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Errorf("ingest run failed")
		} else {
			s.logger.WithContext(ctx).Infof("ingest run completed: observations=%d photos=%d pages=%d",
				result.Observations, result.Photos, result.Pages)
		}
		nextIngest = time.Now().Add(interval)
	}
}

func (s *Supervisor) runClassifyLoop(ctx context.Context, cfg Config, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		result, err := s.classifyEngine.Run(ctx, cfg.ClassifyConfig)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Errorf("classification run failed")
		} else if result.Succeeded > 0 || result.Failed > 0 {
			s.logger.WithContext(ctx).Infof("classification run completed: succeeded=%d failed=%d",
				result.Succeeded, result.Failed)
		}
	}
}

// Stop signals both loops to exit and waits for Run to return, or for ctx
// to expire first.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
