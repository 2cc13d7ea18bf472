// Package server assembles the galaxy service from configuration: logger,
// metrics, tracer, the selected registry store (memory, sqlite or snapshot,
// optionally behind the link cache), notification sinks, identity and the
// gin router. Shutdown stops HTTP first, then drains sinks and closes the store.
package server
