// Package gatewayclient talks to the hosted multimodal inference gateway: a
// single chat-completion request per classification attempt. Retry/backoff
// decisions live in the classification engine (§4.F), not here — this
// client makes exactly one attempt and reports what happened.
package gatewayclient

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/httpclient"
	"github.com/kylenessen/monarch-phenology-go/internal/platform/metrics"
)

// Config configures the client's base URL, credentials, and target model.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client performs one classify_image call per instantiation. Per §5, a
// fresh Client is created and disposed inside each worker task; it is never
// shared across goroutines.
type Client struct {
	http *httpclient.Client
	cfg  Config
}

func New(cfg Config, logger ectologger.Logger) *Client {
	return &Client{
		http: httpclient.NewClient(httpclient.DefaultConfig(), logger),
		cfg:  cfg,
	}
}

// HTTPError is returned for any non-2xx response. RetryAfterSeconds is
// non-nil only when the response carried a numeric Retry-After header.
type HTTPError struct {
	StatusCode        int
	RetryAfterSeconds *int
	Body              string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format"`
}

// RawResponse is the gateway's decoded JSON response, stored verbatim by
// the classification engine.
type RawResponse = map[string]any

// ClassifyImage builds the chat-completion request described in §4.B — a
// system message carrying prompt, a user message with the observer notes
// followed by the image, and a JSON-object response format — and returns
// the gateway's decoded response.
func (c *Client) ClassifyImage(ctx context.Context, imageURL, observerNotes, prompt string) (RawResponse, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: "Observer notes:\n" + observerNotes},
					{Type: "image_url", ImageURL: &imageURLPart{URL: imageURL}},
				},
			},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		metrics.RecordGatewayRequest("error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordGatewayRequest(strconv.Itoa(resp.StatusCode), resp.Duration.Seconds())

	if !httpclient.IsSuccessStatus(resp.StatusCode) {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, ok := retryAfterSeconds(resp.Headers["Retry-After"]); ok {
				httpErr.RetryAfterSeconds = &seconds
			}
		}
		return nil, httpErr
	}

	var decoded RawResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return decoded, nil
}

func retryAfterSeconds(header string) (int, bool) {
	if header == "" {
		return 0, false
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

// PromptHash is a content-addressed SHA-256 fingerprint of the exact
// prompt text used for a classification attempt.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
