// Package middleware provides the gin middleware in front of the dashboard API.
//
//   - CORS: cross-origin access for browser front ends on the local network
//   - RateLimit: per-IP token bucket with idle client eviction
//   - RequestID: X-Request-ID propagation
//   - Logger: one structured zap line per request
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
