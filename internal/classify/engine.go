package classify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/kylenessen/monarch-phenology-go/internal/gatewayclient"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/metrics"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/runctx"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

// Config controls a single classification run: which model/prompt tuple to
// work against, how much queue to drain, and how aggressively to
// parallelize outbound gateway calls.
type Config struct {
	Provider      string
	Model         string
	PromptVersion string
	Prompt        string
	Gateway       gatewayclient.Config

	NotesMaxChars int
	MaxWorkers    int
	MaxAttempts   int
	MaxItems      int
}

// Result summarizes a completed run.
type Result struct {
	Succeeded int
	Failed    int
}

// Engine runs classification work against a ClassificationRepo. The
// goroutine calling Run is the only one in a run that touches the repo;
// gateway workers only perform outbound HTTP.
type Engine struct {
	repo   repositories.ClassificationRepo
	logger ectologger.Logger
}

func NewEngine(repo repositories.ClassificationRepo, logger ectologger.Logger) *Engine {
	return &Engine{repo: repo, logger: logger}
}

type reservedItem struct {
	id           int64
	photoID      int64
	imageURL     string
	notes        string
	attemptCount int
}

type gatewayOutcome struct {
	item reservedItem
	raw  gatewayclient.RawResponse
	err  error
}

// Run selects up to cfg.MaxItems eligible photos, reserves pending
// classification rows for them, classifies each through a bounded pool of
// gateway workers, and records every outcome.
func (e *Engine) Run(ctx context.Context, cfg Config) (Result, error) {
	ctx = runctx.WithRunID(ctx, uuid.NewString())
	e.logger.WithContext(ctx).Infof("starting classify run %s", runctx.RunID(ctx))

	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	promptHash := gatewayclient.PromptHash(cfg.Prompt)

	candidates, err := e.repo.SelectCandidates(ctx, cfg.Provider, cfg.Model, cfg.PromptVersion, cfg.MaxItems)
	if err != nil {
		return Result{}, fmt.Errorf("select classification candidates: %w", err)
	}
	metrics.SetClassificationQueueDepth(len(candidates))
	if len(candidates) == 0 {
		return Result{}, nil
	}

	reserved := make([]reservedItem, 0, len(candidates))
	for _, c := range candidates {
		notes := c.ObserverNotes
		truncated := false
		if cfg.NotesMaxChars > 0 && len(notes) > cfg.NotesMaxChars {
			notes = notes[:cfg.NotesMaxChars]
			truncated = true
		}

		id, err := e.repo.Reserve(ctx, c.PhotoID, cfg.Provider, cfg.Model, cfg.PromptVersion, promptHash, c.ImageURL, notes, truncated)
		if err != nil {
			return Result{}, fmt.Errorf("reserve photo %d: %w", c.PhotoID, err)
		}

		reserved = append(reserved, reservedItem{
			id:           id,
			photoID:      c.PhotoID,
			imageURL:     c.ImageURL,
			notes:        notes,
			attemptCount: c.AttemptCount,
		})
	}

	outcomes := e.dispatch(ctx, cfg, reserved, maxWorkers)

	var result Result
	for _, o := range outcomes {
		if err := e.record(ctx, cfg, o); err != nil {
			e.logger.WithContext(ctx).WithError(err).Errorf("failed to record classification outcome for photo %d", o.item.photoID)
			continue
		}
		if o.err == nil {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// dispatch runs one gateway call per reserved item across maxWorkers
// goroutines, each call on a fresh gatewayclient.Client, and returns every
// outcome once all calls have completed. Workers never touch the database;
// only the caller of dispatch does.
func (e *Engine) dispatch(ctx context.Context, cfg Config, items []reservedItem, maxWorkers int) []gatewayOutcome {
	if maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	jobs := make(chan reservedItem)
	results := make(chan gatewayOutcome, len(items))
	var wg sync.WaitGroup

	go func() {
		for _, it := range items {
			jobs <- it
		}
		close(jobs)
	}()

	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				client := gatewayclient.New(cfg.Gateway, e.logger)
				raw, err := client.ClassifyImage(ctx, it.imageURL, it.notes, cfg.Prompt)
				results <- gatewayOutcome{item: it, raw: raw, err: err}
			}
		}()
	}

	wg.Wait()
	close(results)

	outcomes := make([]gatewayOutcome, 0, len(items))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// record parses a successful gateway call's content and marks the row
// succeeded, or classifies a failure against the retry policy and marks it
// failed or permanent_failed.
func (e *Engine) record(ctx context.Context, cfg Config, o gatewayOutcome) error {
	if o.err == nil {
		output, parseErr := extractContent(o.raw)
		if parseErr == nil {
			if err := e.repo.MarkSucceeded(ctx, o.item.id, output, gatewayclient.RawResponse(o.raw)); err != nil {
				return err
			}
			metrics.RecordClassification("succeeded")
			return nil
		}
		return e.markFailed(ctx, cfg, o.item, parseErr, o.raw)
	}
	return e.markFailed(ctx, cfg, o.item, o.err, nil)
}

func (e *Engine) markFailed(ctx context.Context, cfg Config, item reservedItem, cause error, raw gatewayclient.RawResponse) error {
	attempt := item.attemptCount + 1
	decision := classifyFailure(cause, attempt)
	message := fmt.Sprintf("%s: %v", decision.reason, cause)

	permanent := decision.permanent || attempt >= cfg.MaxAttempts
	var retryAfter *time.Time
	if !permanent {
		t := time.Now().UTC().Add(time.Duration(decision.retrySeconds) * time.Second)
		retryAfter = &t
	}

	var rawArg any
	if raw != nil {
		rawArg = raw
	}

	if err := e.repo.MarkFailed(ctx, item.id, permanent, cfg.MaxAttempts, retryAfter, message, rawArg); err != nil {
		return err
	}

	outcome := "failed"
	if permanent {
		outcome = "permanent_failed"
	}
	metrics.RecordClassification(outcome)
	return nil
}

// extractContent pulls choices[0].message.content out of a chat-completion
// response and recovers a JSON object from it.
func extractContent(raw gatewayclient.RawResponse) (map[string]any, error) {
	choices, ok := raw["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, &ErrContentParse{Err: fmt.Errorf("response has no choices")}
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return nil, &ErrContentParse{Err: fmt.Errorf("choice is not an object")}
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return nil, &ErrContentParse{Err: fmt.Errorf("choice has no message")}
	}
	return ParseModelContent(message["content"])
}
