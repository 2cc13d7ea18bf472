// Package types provides shared data structures for the galaxy backend.
//
// Core Types:
//   - UserID: Opaque owner of a layer namespace
//   - Layer: A (user, name) -> link binding
//   - Account: Registered identity
//   - RegistryStats: Registry counters
//
// Request Types:
//   - CreateLayerRequest: Layer registration
//   - CredentialsRequest: Account register/login
//   - WSMessage: WebSocket control messages
//
// Response Types:
//   - ErrorResponse: {"error", "code"} body of every failure
//   - LayerResponse, LayerListResponse, SessionResponse, HealthResponse
package types
