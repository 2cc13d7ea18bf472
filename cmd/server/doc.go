// Package main is the entry point for the galaxy layer registry server.
//
// The server keeps a per-user registry of named layers, each bound once to
// an opaque content link, and exposes it over REST and a WebSocket event
// stream.
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# In-memory registry
//	./server -port 8000
//
//	# Persistent registry
//	./server -storage sqlite
//	STORAGE_BACKEND=snapshot STORAGE_PATH=/var/lib/galaxy/registry.snap ./server
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
