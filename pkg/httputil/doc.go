// Package httputil provides retry helpers for the data-source client.
//
// [Retry] re-runs an operation for transient failures only. Callers mark an
// error as transient by wrapping it with [Retryable]:
//
//   - connection errors and timeouts
//   - 5xx responses
//   - 429 responses (wrapping a [errors.RateLimitedError] whose RetryAfter
//     hint replaces the backoff delay)
//
// Everything else is returned immediately.
//
// Default settings via [RetryWithBackoff]: 3 attempts, 1 second initial
// delay, doubling after each failure.
package httputil
