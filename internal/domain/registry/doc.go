// Package registry implements the per-user layer registry.
//
// Every user owns an independent namespace of layer names; each name
// resolves to exactly one link. Two structures back the registry and are
// kept in lockstep by every Store implementation:
//   - an ordered, append-only layer list per user
//   - a (user, name) -> link table
//
// Operations:
//   - CreateLayer: append a name to the caller's list and bind its link.
//     Fails with ErrLayerAlreadyExists, leaving state untouched, when the
//     caller already owns the name.
//   - ResolveLink: public lookup of any user's layer. Fails with
//     ErrLayerNotFound when the name is not in that user's list.
//
// Bindings are immutable once created; there is no update, rename or delete.
//
// Concurrency:
//   - CreateLayer holds a per-user mutex across its read-check-write, so two
//     writers for the same user never interleave
//   - Stores publish a commit's list and binding atomically, so readers
//     never lock
//
// Components:
//   - Manager: the registry operations
//   - Store / MemoryStore: persistence contract and in-memory implementation
//   - Seeder: registers layers from YAML/TOML manifests on startup, and
//     optionally again whenever the manifest tree changes (Watch)
//
// Example Usage:
//
//	manager := registry.NewManager(registry.NewMemoryStore()).
//	    WithNotifier(broker).
//	    WithMetrics(metrics)
//	err := manager.CreateLayer(ctx, caller, "Layer1", "ipfs://link1")
//	link, err := manager.ResolveLink(ctx, caller, "Layer1")
package registry
