// Package client provides the outbound HTTP client used to reach the remote
// app store.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Bounded per-request timeout
//   - Retries with backoff for transport errors and 5xx responses
//   - Optional client-side rate limiting
//   - A circuit breaker so a dead store fails fast
//
// Every failure, including non-2xx statuses, is returned wrapped in
// ErrUnavailable; callers treat it as "not found" and fall back to their
// stale cache.
package client
