package classify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kylenessen/monarch-phenology-go/internal/classify"
	"github.com/kylenessen/monarch-phenology-go/internal/gatewayclient"
	"github.com/kylenessen/monarch-phenology-go/internal/repositories"
)

func testLogger() *zap.Logger {
	l, _ := zap.NewDevelopment()
	return l
}

type fakeRow struct {
	permanent    bool
	failed       bool
	succeeded    bool
	attemptCount int
	lastError    string
}

// fakeClassificationRepo is an in-memory stand-in for repositories.ClassificationRepo.
type fakeClassificationRepo struct {
	mu         sync.Mutex
	candidates []repositories.WorkCandidate
	rows       map[int64]*fakeRow
	nextID     int64
}

func newFakeRepo(candidates []repositories.WorkCandidate) *fakeClassificationRepo {
	return &fakeClassificationRepo{candidates: candidates, rows: map[int64]*fakeRow{}}
}

func (f *fakeClassificationRepo) SelectCandidates(ctx context.Context, provider, model, promptVersion string, limit int) ([]repositories.WorkCandidate, error) {
	return f.candidates, nil
}

func (f *fakeClassificationRepo) Reserve(ctx context.Context, photoID int64, provider, model, promptVersion, promptHash, imageURL, notes string, notesTruncated bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows[f.nextID] = &fakeRow{}
	return f.nextID, nil
}

func (f *fakeClassificationRepo) MarkSucceeded(ctx context.Context, id int64, output any, rawResponse any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[id].succeeded = true
	return nil
}

func (f *fakeClassificationRepo) MarkFailed(ctx context.Context, id int64, permanent bool, maxAttempts int, retryAfter *time.Time, errMessage string, rawResponse any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[id]
	row.attemptCount++
	row.lastError = errMessage
	if permanent {
		row.permanent = true
	} else {
		row.failed = true
	}
	return nil
}

func TestEngine_Run_SucceedsForEachEligiblePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"life_stage": "adult", "sex": "unknown"}`,
					},
				},
			},
		})
	}))
	defer srv.Close()

	repo := newFakeRepo([]repositories.WorkCandidate{
		{PhotoID: 1, ImageURL: srv.URL + "/a.jpg", ObserverNotes: "notes a"},
		{PhotoID: 2, ImageURL: srv.URL + "/b.jpg", ObserverNotes: "notes b"},
	})
	engine := classify.NewEngine(repo, zapadapter.NewZapEctoLogger(testLogger(), nil))

	result, err := engine.Run(context.Background(), classify.Config{
		Provider:      "openrouter",
		Model:         "test-model",
		PromptVersion: "v1",
		Prompt:        "classify this monarch photo",
		Gateway:       gatewayclient.Config{BaseURL: srv.URL, APIKey: "key", Model: "test-model"},
		MaxWorkers:    2,
		MaxAttempts:   3,
		MaxItems:      10,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	for _, row := range repo.rows {
		assert.True(t, row.succeeded)
	}
}

func TestEngine_Run_ClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	repo := newFakeRepo([]repositories.WorkCandidate{
		{PhotoID: 1, ImageURL: srv.URL + "/a.jpg", ObserverNotes: "notes"},
	})
	engine := classify.NewEngine(repo, zapadapter.NewZapEctoLogger(testLogger(), nil))

	result, err := engine.Run(context.Background(), classify.Config{
		Provider:      "openrouter",
		Model:         "test-model",
		PromptVersion: "v1",
		Prompt:        "classify",
		Gateway:       gatewayclient.Config{BaseURL: srv.URL, APIKey: "key", Model: "test-model"},
		MaxWorkers:    1,
		MaxAttempts:   3,
		MaxItems:      10,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	for _, row := range repo.rows {
		assert.True(t, row.permanent)
		assert.False(t, row.failed)
	}
}

func TestEngine_Run_NoEligibleCandidatesIsANoop(t *testing.T) {
	repo := newFakeRepo(nil)
	engine := classify.NewEngine(repo, zapadapter.NewZapEctoLogger(testLogger(), nil))

	result, err := engine.Run(context.Background(), classify.Config{
		Provider:      "openrouter",
		Model:         "test-model",
		PromptVersion: "v1",
		Prompt:        "classify",
		MaxWorkers:    2,
		MaxAttempts:   3,
		MaxItems:      10,
	})

	require.NoError(t, err)
	assert.Equal(t, classify.Result{}, result)
}

func TestEngine_Run_NotesAreTruncated(t *testing.T) {
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		messages := body["messages"].([]any)
		userMsg := messages[1].(map[string]any)
		parts := userMsg["content"].([]any)
		textPart := parts[0].(map[string]any)
		gotContent = textPart["text"].(string)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"life_stage": "adult"}`}}},
		})
	}))
	defer srv.Close()

	repo := newFakeRepo([]repositories.WorkCandidate{
		{PhotoID: 1, ImageURL: srv.URL + "/a.jpg", ObserverNotes: "0123456789"},
	})
	engine := classify.NewEngine(repo, zapadapter.NewZapEctoLogger(testLogger(), nil))

	_, err := engine.Run(context.Background(), classify.Config{
		Provider:      "openrouter",
		Model:         "test-model",
		PromptVersion: "v1",
		Prompt:        "classify",
		Gateway:       gatewayclient.Config{BaseURL: srv.URL, APIKey: "key", Model: "test-model"},
		NotesMaxChars: 5,
		MaxWorkers:    1,
		MaxAttempts:   3,
		MaxItems:      10,
	})

	require.NoError(t, err)
	assert.Contains(t, gotContent, "01234")
	assert.NotContains(t, gotContent, "56789")
}
