// Package monitoring provides Prometheus metrics for the galaxy backend.
//
// Metric families:
//   - galaxy_http_*: request counts and latency per route template
//   - galaxy_layers_*: accepted and rejected create_layer calls
//   - galaxy_resolves_total: resolve_link outcomes (hit, miss, fault)
//   - galaxy_store_*: storage latency and failures per operation
//   - galaxy_events_*: notification hand-offs and drops per sink
//   - galaxy_link_cache_lookups_total: read-through cache effectiveness
//
// Every Metrics value owns a private prometheus.Registry, exposed through
// Handler() at GET /metrics.
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics()
//	router.Use(monitoring.Middleware(metrics))
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
package monitoring
