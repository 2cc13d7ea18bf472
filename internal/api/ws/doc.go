// Package ws streams layer.created events to WebSocket clients.
//
// Clients connect to GET /events, optionally with ?user=<id> to follow a
// single namespace. The server first sends {"type":"subscribed"}, then one
// JSON message per created layer. A client {"type":"ping"} is answered with
// {"type":"pong"}. Slow clients lose events rather than stall creation.
package ws
