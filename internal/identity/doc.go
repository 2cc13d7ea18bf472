// Package identity supplies the caller of mutating registry operations.
//
// A Source turns a bearer token into a UserID. The HTTP layer authenticates
// every mutating request and stores the caller with WithCaller; handlers
// read it back with CallerFrom and never take the acting user from the body.
//
// Accounts is the built-in Source: bcrypt-hashed passwords, UUID user IDs and
// random session tokens that expire after a fixed TTL.
package identity
