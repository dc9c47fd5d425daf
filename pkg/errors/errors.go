package errors

import (
	"errors"
	"fmt"
)

// Generic error types

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// Source adapter errors. A fetch failing with one of these is recorded
// against its source and never aborts a run.

var (
	// ErrSourceUnavailable indicates missing or rejected credentials, or an
	// upstream that could not be reached within its deadline
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates the upstream quota is exhausted (retry later)
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream indicates an unexpected upstream response (5xx, bad payload)
	ErrUpstream = errors.New("upstream error")
)

// Analysis signals

var (
	// ErrDegenerateCorpus indicates a corpus too small to factor into topics.
	// Callers treat it as "no topics", not as a failure.
	ErrDegenerateCorpus = errors.New("degenerate corpus")
)

// HTTPStatusError carries the status code of a failed upstream call
type HTTPStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%v: status %d: %s", e.Err, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%v: status %d", e.Err, e.StatusCode)
}

// Unwrap returns the classification sentinel
func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// NewHTTPStatusError classifies a non-2xx upstream status code.
// 401/403 map to ErrSourceUnavailable, 429 to ErrRateLimited, anything else
// to ErrUpstream. body is truncated to keep log lines readable.
func NewHTTPStatusError(status int, body string) *HTTPStatusError {
	if len(body) > 256 {
		body = body[:256]
	}

	var kind error
	switch {
	case status == 401 || status == 403:
		kind = ErrSourceUnavailable
	case status == 429:
		kind = ErrRateLimited
	default:
		kind = ErrUpstream
	}

	return &HTTPStatusError{StatusCode: status, Body: body, Err: kind}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
