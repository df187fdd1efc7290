// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Common application errors.
var (
	// Input errors, surfaced to the caller immediately and never retried.
	ErrInvalidImage = errors.New("invalid or unreadable image")
	ErrEmptyInput   = errors.New("empty input")

	// Engine errors.
	ErrRateLimit         = errors.New("rate limit exceeded")
	ErrMaxRetries        = errors.New("max retries exceeded")
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Configuration errors, failing fast at construction time.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// HTTPStatusError represents a non-2xx response from a hosted engine. It
// carries the status so retry classification can distinguish transient server
// errors from permanent client errors.
type HTTPStatusError struct {
	Body       string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// retryableStatuses is the allow-list of transient HTTP statuses.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Only the
// configured allow-list of transient classes qualifies: timeouts, connection
// resets, rate limits, and transient HTTP statuses. Everything else
// propagates on first occurrence.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return retryableStatuses[statusErr.StatusCode]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// Some transports wrap resets without preserving the errno.
	if strings.Contains(err.Error(), "connection reset") {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
