// Package events delivers LayerCreated notifications.
//
// The Dispatcher is the registry's Notifier. For every committed layer it
// builds one event (with a ULID id) and hands it to each Sink:
//   - Broker: in-process fan-out to subscribers such as WebSocket clients
//   - Webhook: queued HTTP POST to an external endpoint with retries
//
// Sinks never block the caller. When a buffer is full the event is dropped
// and counted; the layer itself stays committed.
package events
