package classify

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/kylenessen/monarch-phenology-go/internal/gatewayclient"
)

// retryDecision is the outcome of classifying a single attempt's failure:
// whether it should ever be retried, how long to wait before the next
// attempt if so, and a short human-readable reason recorded alongside the
// error in last_error.
type retryDecision struct {
	permanent    bool
	retrySeconds int
	reason       string
}

// retrySecondsForAttempt computes a capped exponential backoff. attempt is
// 1-based: the first retry after an initial failure uses attempt=1.
func retrySecondsForAttempt(attempt, base, cap int) int {
	if attempt < 1 {
		attempt = 1
	}
	seconds := base
	for i := 1; i < attempt; i++ {
		seconds *= 2
		if seconds >= cap {
			return cap
		}
	}
	if seconds > cap {
		return cap
	}
	return seconds
}

// classifyFailure maps an error returned from a single classification
// attempt onto a retry decision, following the table in the classification
// engine's design: rate limiting honors a Retry-After header when present,
// server errors and network errors back off on a fixed schedule, other 4xx
// responses are permanent, and content that never parses as JSON gets a
// slow retry before giving up.
func classifyFailure(err error, attempt int) retryDecision {
	var httpErr *gatewayclient.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 429:
			if httpErr.RetryAfterSeconds != nil {
				return retryDecision{false, *httpErr.RetryAfterSeconds, "rate limited"}
			}
			return retryDecision{false, retrySecondsForAttempt(attempt, 10, 300), "rate limited"}
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return retryDecision{false, retrySecondsForAttempt(attempt, 30, 1800), "server error"}
		default:
			return retryDecision{true, 0, fmt.Sprintf("http %d client error", httpErr.StatusCode)}
		}
	}

	var parseErr *ErrContentParse
	if errors.As(err, &parseErr) {
		return retryDecision{false, retrySecondsForAttempt(attempt, 60, 1800), "invalid JSON response"}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return retryDecision{false, retrySecondsForAttempt(attempt, 10, 600), "network error"}
	}

	return retryDecision{false, retrySecondsForAttempt(attempt, 60, 3600), "unexpected error"}
}
