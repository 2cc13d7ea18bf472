package paths

import (
	"os"
	"path/filepath"
)

// Root is the default data directory for persistent stores
const Root = "/tmp/galaxy"

// Default file names below Root
const (
	DatabaseFile = "registry.db"
	SnapshotFile = "registry.snap"
	SeedDir      = "seeds"
)

// Database returns the default SQLite database path
func Database() string {
	return filepath.Join(Root, DatabaseFile)
}

// Snapshot returns the default snapshot file path
func Snapshot() string {
	return filepath.Join(Root, SnapshotFile)
}

// EnsureParent creates the parent directory of path with owner-only permissions
func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}
