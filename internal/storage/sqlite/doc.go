// Package sqlite provides a durable registry.Store on SQLite.
//
// Schema (applied by golang-migrate from embedded migrations):
//   - user_layers(user_id, layers): the ordered layer list, JSON encoded
//   - layer_links(user_id, layer_name, link, created_at): one row per binding
//
// Commit inserts the binding and replaces the list inside one transaction.
// The pure-Go ncruces driver is used, so no cgo is required.
package sqlite
