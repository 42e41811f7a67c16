package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrTimeout         = errors.New("request timed out")
	ErrMaxRetries      = errors.New("max retries exceeded")
	ErrBlocked         = errors.New("blocked by origin")
	ErrNotFound        = errors.New("permanent client error")
	ErrEmptyResponse   = errors.New("empty response body")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNoContent       = errors.New("no extractor produced enough text")
	ErrRenderDisabled  = errors.New("dynamic render disabled")
	ErrNotWhitelisted  = errors.New("domain not in render whitelist")
	ErrBudgetExhausted = errors.New("render call budget exhausted")
	ErrAlreadyRendered = errors.New("url already rendered this run")
	ErrNotEligible     = errors.New("prior status not eligible for render")
)

// AttemptError classifies a single failed fetch attempt. It never crosses the
// Fetch boundary; callers see a FetchResult instead.
type AttemptError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	Timeout    bool
	RetryAfter time.Duration // from Retry-After on 429/503
}

func (e *AttemptError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

func (e *AttemptError) IsRetryable() bool { return e.Retryable }

// ParseError wraps errors that occur during extraction.
type ParseError struct {
	URL    string
	Method Method
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (method=%s): %v", e.URL, e.Method, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PanicError is produced when an extraction step panics. The orchestrator
// converts it to StatusErrorParsing.
type PanicError struct {
	Stage string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Stage, e.Value)
}
