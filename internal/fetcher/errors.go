package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRetriesExhausted is returned when every attempt of a fetch failed.
	// Callers treat it as "no data for this page".
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrSolverFailed is returned when FlareSolverr answers with a non-ok status.
	ErrSolverFailed = errors.New("challenge solver failed")

	// ErrNoSolver is returned when a challenge is met and no solver is configured.
	ErrNoSolver = errors.New("challenge detected and no solver configured")
)

// StatusError reports a response with an unexpected HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status may change on a later attempt.
// Client errors mean the page does not exist for this year or school.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// ChallengeError reports that the response was an anti-bot challenge page.
type ChallengeError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *ChallengeError) Error() string {
	return fmt.Sprintf("anti-bot challenge (status %d) for %s", e.StatusCode, e.URL)
}

// retryable decides whether a failed attempt is worth repeating.
// Anything other than a definite client error is treated as transient; the
// caller checks its own context before asking.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
