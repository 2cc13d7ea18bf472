// Package cache provides a read-through link cache in front of a registry.Store.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Store caches resolved links. Bindings never change once written, so a
// cached link can only expire, never go stale. Layer lists and misses always
// go to the backing store.
type Store struct {
	registry.Store
	links   *gocache.Cache
	metrics *monitoring.Metrics
}

var _ registry.Store = (*Store)(nil)

// New wraps backing with a link cache
func New(backing registry.Store, ttl, cleanup time.Duration) *Store {
	return &Store{
		Store: backing,
		links: gocache.New(ttl, cleanup),
	}
}

// WithMetrics records hit/miss counts
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

// Link implements registry.Store
func (s *Store) Link(ctx context.Context, user types.UserID, name string) (string, bool, error) {
	key := cacheKey(user, name)
	if v, ok := s.links.Get(key); ok {
		s.record(true)
		return v.(string), true, nil
	}
	s.record(false)

	link, ok, err := s.Store.Link(ctx, user, name)
	if err != nil || !ok {
		return link, ok, err
	}
	s.links.SetDefault(key, link)
	return link, true, nil
}

// Commit implements registry.Store, priming the cache with the new binding
func (s *Store) Commit(ctx context.Context, layers []string, layer types.Layer) error {
	if err := s.Store.Commit(ctx, layers, layer); err != nil {
		return err
	}
	s.links.SetDefault(cacheKey(layer.User, layer.Name), layer.Link)
	return nil
}

// Len returns the number of cached links
func (s *Store) Len() int {
	return s.links.ItemCount()
}

// Close flushes the cache and closes the backing store
func (s *Store) Close() error {
	s.links.Flush()
	return s.Store.Close()
}

func (s *Store) record(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

// cacheKey joins user and name with NUL, which neither may contain
func cacheKey(user types.UserID, name string) string {
	return string(user) + "\x00" + name
}
