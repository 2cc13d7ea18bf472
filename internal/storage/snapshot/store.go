package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/shared/paths"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Store serves reads from memory and rewrites a compressed snapshot file on
// every commit. The file is replaced by rename, so a crash leaves either the
// old or the new image on disk.
type Store struct {
	mu          sync.Mutex
	path        string
	compression Compression
	mem         *registry.MemoryStore
	logger      *zap.Logger
}

var _ registry.Store = (*Store)(nil)

// Open loads the snapshot at path, or starts empty when it does not exist
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("snapshot")

	if err := paths.EnsureParent(path); err != nil {
		return nil, err
	}

	s := &Store{
		path:        path,
		compression: compressionFor(path),
		logger:      logger,
	}

	state, err := s.load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.mem = registry.NewMemoryStore()
		logger.Info("Starting with empty snapshot", zap.String("path", path))
		return s, nil
	case err != nil:
		return nil, err
	}

	if s.mem, err = registry.NewMemoryStoreFromState(state); err != nil {
		return nil, fmt.Errorf("snapshot %s is inconsistent: %w", path, err)
	}
	logger.Info("Loaded snapshot",
		zap.String("path", path),
		zap.Int("users", len(state.Lists)),
		zap.Int("layers", len(state.Links)),
	)
	return s, nil
}

// Layers implements registry.Store
func (s *Store) Layers(ctx context.Context, user types.UserID) ([]string, bool, error) {
	return s.mem.Layers(ctx, user)
}

// Link implements registry.Store
func (s *Store) Link(ctx context.Context, user types.UserID, name string) (string, bool, error) {
	return s.mem.Link(ctx, user, name)
}

// Commit implements registry.Store. The snapshot is written before memory is
// updated; a failed write leaves both untouched.
func (s *Store) Commit(ctx context.Context, layers []string, layer types.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists, _ := s.mem.Link(ctx, layer.User, layer.Name); exists {
		return &registry.ConsistencyError{User: layer.User, Name: layer.Name, Reason: "binding already present"}
	}

	state := s.mem.State()
	state.Apply(layers, layer)
	if err := s.save(state); err != nil {
		s.logger.Error("Failed to write snapshot", zap.String("path", s.path), zap.Error(err))
		return err
	}

	return s.mem.Commit(ctx, layers, layer)
}

// Close implements registry.Store
func (s *Store) Close() error { return nil }

func (s *Store) load() (registry.State, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return registry.State{}, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f), s.compression)
}

func (s *Store) save(state registry.State) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := Encode(w, state, s.compression); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}
