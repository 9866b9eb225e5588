// internal/errors/errors.go
package errors

import (
	"fmt"
	"time"
)

// RateLimitError is returned when the GitHub API quota is exhausted.
// It is fatal to the current batch: the orchestrator lets it propagate
// instead of recording a per-repository failure.
type RateLimitError struct {
	Endpoint string
	ResetAt  time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("github rate limit exceeded on %q", e.Endpoint)
	}
	return fmt.Sprintf("github rate limit exceeded on %q, resets at %s", e.Endpoint, e.ResetAt.UTC().Format(time.RFC3339))
}

// APIError wraps any other GitHub API failure: transport errors, non-2xx
// statuses, malformed responses. Recoverable at per-repository granularity.
type APIError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("github api error on %q: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("github api error on %q: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("github api error on %q: status %d", e.Endpoint, e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }
