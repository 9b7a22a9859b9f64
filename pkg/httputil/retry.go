// Package httputil provides the retry discipline shared by the metadata
// API clients.
//
// Transient failures (network timeouts, connection errors, 5xx responses)
// are wrapped with [RetryableError] by the transport layer; [Retry] only
// re-attempts those. Upstream rejections (404, 401, 429) are returned
// immediately so the caller can record them per entry.
package httputil

import (
	"context"
	"errors"
	"time"
)

// DefaultAttempts and DefaultDelay are the conservative retry defaults:
// three attempts with exponential backoff starting at 200ms.
const (
	DefaultAttempts = 3
	DefaultDelay    = 200 * time.Millisecond
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] with the
// package defaults: 3 attempts with 200ms initial delay (doubling each retry).
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultAttempts, DefaultDelay, fn)
}

// IsRetryable reports whether err is wrapped with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
