// Package middleware provides HTTP middleware for the registry API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - Authenticate: bearer token to caller identity
//
// Rate Limiting:
//   - Per-IP tracking; clients idle for 10 minutes are forgotten
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//
// Failures abort with {"error": "...", "code": "..."}.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.POST("/layers", middleware.Authenticate(accounts), h.CreateLayer)
package middleware
