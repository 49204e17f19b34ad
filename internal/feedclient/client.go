// Package feedclient talks to the remote observation feed: a single
// paginated list operation with a retry policy tuned for rate-limit and
// server-error signals.
package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/httpclient"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/metrics"
)

// Config configures the client's base URL and retry policy.
type Config struct {
	BaseURL             string
	MaxRetries          int
	RetryBackoffSeconds int
	SleepSeconds        int
}

// Client wraps httpclient.Client with the feed's pagination contract and
// retry policy.
type Client struct {
	http   *httpclient.Client
	cfg    Config
	logger ectologger.Logger
	sleep  func(time.Duration)
}

func New(cfg Config, logger ectologger.Logger) *Client {
	return &Client{
		http:   httpclient.NewClient(httpclient.DefaultConfig(), logger),
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Observation is the subset of the remote JSON shape the mapper and
// persistence layer need, kept as a raw map so the mapper can extract
// whatever fields the remote schema carries without this client needing to
// model them.
type Observation = map[string]any

// Page is one page of the list_observations operation.
type Page struct {
	Results    []Observation `json:"results"`
	TotalCount int           `json:"total_results"`
}

// ListParams are the query parameters for list_observations.
type ListParams struct {
	TaxonID      int
	PlaceID      int
	QualityGrade string
	PerPage      int
	Page         int
	UpdatedSince time.Time
	OrderBy      string
	Order        string
}

// ListObservations fetches one page of observations, applying the retry
// policy in §4.A: 429 honors Retry-After or falls back to linear backoff,
// 5xx and network errors use linear backoff, any other 4xx fails
// immediately. After a successful request it sleeps SleepSeconds before
// returning.
func (c *Client) ListObservations(ctx context.Context, p ListParams) (*Page, error) {
	reqURL := c.buildURL(p)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries+1; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		start := time.Now()
		resp, err := c.http.Do(ctx, req)
		if err != nil {
			metrics.RecordFeedRequest("error", time.Since(start).Seconds())
			lastErr = err
			if attempt > c.cfg.MaxRetries {
				break
			}
			c.logger.WithContext(ctx).WithError(err).Warnf("feed request failed, retrying (attempt %d)", attempt)
			c.sleep(c.linearBackoff(attempt))
			continue
		}
		metrics.RecordFeedRequest(strconv.Itoa(resp.StatusCode), resp.Duration.Seconds())

		if httpclient.IsSuccessStatus(resp.StatusCode) {
			var page Page
			if err := json.Unmarshal(resp.Body, &page); err != nil {
				return nil, fmt.Errorf("decode feed page: %w", err)
			}
			c.sleep(time.Duration(c.cfg.SleepSeconds) * time.Second)
			return &page, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("feed returned 429")
			if attempt > c.cfg.MaxRetries {
				break
			}
			c.sleep(c.rateLimitBackoff(resp, attempt))
			continue
		}

		if httpclient.IsRetryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("feed returned %d", resp.StatusCode)
			if attempt > c.cfg.MaxRetries {
				break
			}
			c.sleep(c.linearBackoff(attempt))
			continue
		}

		return nil, fmt.Errorf("feed returned non-retryable status %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("feed request exhausted %d retries: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) linearBackoff(attempt int) time.Duration {
	return time.Duration(c.cfg.RetryBackoffSeconds*attempt) * time.Second
}

// rateLimitBackoff honors a numeric Retry-After header if present, else
// falls back to the same linear backoff used for other retryable statuses.
func (c *Client) rateLimitBackoff(resp *httpclient.Response, attempt int) time.Duration {
	if raw, ok := resp.Headers["Retry-After"]; ok {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return c.linearBackoff(attempt)
}

func (c *Client) buildURL(p ListParams) string {
	q := url.Values{}
	q.Set("taxon_id", strconv.Itoa(p.TaxonID))
	if p.PlaceID != 0 {
		q.Set("place_id", strconv.Itoa(p.PlaceID))
	}
	if p.QualityGrade != "" {
		q.Set("quality_grade", p.QualityGrade)
	}
	q.Set("per_page", strconv.Itoa(p.PerPage))
	q.Set("page", strconv.Itoa(p.Page))
	if !p.UpdatedSince.IsZero() {
		q.Set("updated_since", p.UpdatedSince.UTC().Format(time.RFC3339))
	}
	q.Set("order_by", p.OrderBy)
	q.Set("order", p.Order)

	u, _ := url.Parse(c.cfg.BaseURL + "/observations")
	u.RawQuery = q.Encode()
	return u.String()
}
