package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork signals a transport-level failure talking to the case repository.
	ErrNetwork = errors.New("network error")
	// ErrRateLimited signals an explicit too-many-requests answer from the repository.
	ErrRateLimited = errors.New("rate limited by case repository")
	// ErrBlockedAccess signals an interactive challenge page instead of results.
	ErrBlockedAccess = errors.New("access blocked by case repository")
	// ErrHTTPStatus signals an unexpected non-success status.
	ErrHTTPStatus = errors.New("unexpected http status")
	// ErrSearchFailed signals that every search attempt failed.
	ErrSearchFailed = errors.New("search failed")

	// ErrCacheRead signals a cache record that could not be read or decoded.
	ErrCacheRead = errors.New("cache read failed")
	// ErrCacheWrite signals a cache record that could not be persisted.
	ErrCacheWrite = errors.New("cache write failed")

	// ErrInvalidQuery signals an empty or otherwise unusable fact pattern.
	ErrInvalidQuery = errors.New("invalid query")
)

// HTTPStatusError carries the status code of an unexpected repository response.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrHTTPStatus.Error(), e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *HTTPStatusError) Unwrap() error { return ErrHTTPStatus }

// SearchFailure is returned once the retry budget is spent.
// It matches both ErrSearchFailed and the last attempt's error under errors.Is.
type SearchFailure struct {
	Attempts int
	Err      error
}

func (e *SearchFailure) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrSearchFailed.Error(), e.Attempts, e.Err)
}

func (e *SearchFailure) Unwrap() []error { return []error{ErrSearchFailed, e.Err} }

// NewSearchFailure wraps the final attempt error.
func NewSearchFailure(attempts int, err error) error {
	return &SearchFailure{Attempts: attempts, Err: err}
}
