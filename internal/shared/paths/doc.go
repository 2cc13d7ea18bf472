// Package paths centralizes on-disk locations used by the persistent stores.
//
// Layout:
//
//	/tmp/galaxy/registry.db     SQLite store
//	/tmp/galaxy/registry.snap   zstd-compressed snapshot store
//	/tmp/galaxy/seeds/          seed manifests
package paths
