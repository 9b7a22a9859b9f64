// Package integrations provides shared HTTP plumbing for the platform
// metadata API clients: default headers, per-call timeouts, and the mapping
// from HTTP status codes onto the error taxonomy.
//
// The taxonomy distinguishes upstream rejections, which are reported per
// entry and never retried, from transient failures, which are wrapped as
// retryable for [httputil.Retry]:
//
//   - 404             -> [ErrNotFound]
//   - 401, 403        -> [ErrUnauthorized]
//   - 429             -> [ErrRateLimited]
//   - 5xx, transport  -> retryable [ErrNetwork]
package integrations

import (
	"errors"
	"net/http"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a project or version doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned when the platform rejects the request's credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when the platform throttles the request.
	ErrRateLimited = errors.New("rate limited")
)

// NewHTTPClient creates an HTTP client with a standard timeout for platform
// API requests. A timed-out call surfaces as a transport error and is
// classified as transient.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
