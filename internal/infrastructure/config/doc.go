// Package config provides 12-factor configuration management for the layer registry.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listen address and shutdown grace period
//   - Storage: backend (memory, sqlite, snapshot) and file path
//   - Cache: link cache TTL
//   - Auth: session lifetime
//   - Events: subscriber buffer and optional webhook
//   - Seed: manifest directory loaded at startup
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - STORAGE_BACKEND, STORAGE_PATH
//   - CACHE_ENABLED, CACHE_TTL, CACHE_CLEANUP
//   - SESSION_TTL
//   - EVENTS_BUFFER, WEBHOOK_URL, WEBHOOK_RETRIES
//   - SEED_DIR, SEED_PATTERN, SEED_OWNER
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
