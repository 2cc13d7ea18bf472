// Package registrytest runs the registry behaviour checks against any Store.
package registrytest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// StoreFactory returns a fresh, empty store. Cleanup is the factory's job.
type StoreFactory func(t *testing.T) registry.Store

// RunStoreSuite exercises a Store through the Manager
func RunStoreSuite(t *testing.T, newStore StoreFactory) {
	t.Helper()

	t.Run("CreateThenResolve", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		require.NoError(t, m.CreateLayer(ctx, "alice", "Layer1", "ipfs://link1"))

		link, err := m.ResolveLink(ctx, "alice", "Layer1")
		require.NoError(t, err)
		assert.Equal(t, "ipfs://link1", link)

		err = m.CreateLayer(ctx, "alice", "Layer1", "ipfs://link2")
		assert.ErrorIs(t, err, registry.ErrLayerAlreadyExists)

		link, err = m.ResolveLink(ctx, "alice", "Layer1")
		require.NoError(t, err)
		assert.Equal(t, "ipfs://link1", link)

		layers, err := m.Layers(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"Layer1"}, layers)
	})

	t.Run("NamespaceIsolation", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		require.NoError(t, m.CreateLayer(ctx, "alice", "base", "ipfs://alice"))
		require.NoError(t, m.CreateLayer(ctx, "bob", "base", "ipfs://bob"))

		link, err := m.ResolveLink(ctx, "alice", "base")
		require.NoError(t, err)
		assert.Equal(t, "ipfs://alice", link)

		link, err = m.ResolveLink(ctx, "bob", "base")
		require.NoError(t, err)
		assert.Equal(t, "ipfs://bob", link)
	})

	t.Run("UnknownLookup", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		_, err := m.ResolveLink(ctx, "nobody", "missing")
		assert.ErrorIs(t, err, registry.ErrLayerNotFound)

		require.NoError(t, m.CreateLayer(ctx, "alice", "present", "ipfs://x"))
		_, err = m.ResolveLink(ctx, "alice", "missing")
		assert.ErrorIs(t, err, registry.ErrLayerNotFound)

		layers, err := m.Layers(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, layers)
	})

	t.Run("RegistrationOrder", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		names := []string{"zeta", "alpha", "mid", "Alpha", "ALPHA"}
		for _, name := range names {
			require.NoError(t, m.CreateLayer(ctx, "alice", name, "ipfs://"+name))
		}

		layers, err := m.Layers(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, names, layers)
	})

	t.Run("OpaqueStrings", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		name := "layer with spaces / ünïcödé"
		link := "not even a url"
		require.NoError(t, m.CreateLayer(ctx, "alice", name, link))

		got, err := m.ResolveLink(ctx, "alice", name)
		require.NoError(t, err)
		assert.Equal(t, link, got)
	})

	t.Run("CommitOverExistingBinding", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		layer := types.Layer{User: "alice", Name: "one", Link: "ipfs://one"}
		require.NoError(t, store.Commit(ctx, []string{"one"}, layer))

		layer.Link = "ipfs://other"
		err := store.Commit(ctx, []string{"one", "one"}, layer)
		require.Error(t, err)
		assert.True(t, registry.IsConsistencyError(err))

		layers, ok, err := store.Layers(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"one"}, layers)

		link, ok, err := store.Link(ctx, "alice", "one")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "ipfs://one", link)
	})

	t.Run("ConcurrentDuplicates", func(t *testing.T) {
		ctx := context.Background()
		m := registry.NewManager(newStore(t))

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := m.CreateLayer(ctx, "alice", "contended", fmt.Sprintf("ipfs://%d", i))
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, registry.ErrLayerAlreadyExists)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		layers, err := m.Layers(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"contended"}, layers)
	})

	t.Run("Properties", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			checkOperations(rt, registry.NewManager(newStore(t)))
		})
	})
}

type op struct {
	create bool
	user   types.UserID
	name   string
	link   string
}

// checkOperations runs a random sequence of creates and resolves against a
// model and then verifies lists and links agree with it.
func checkOperations(rt *rapid.T, m *registry.Manager) {
	ctx := context.Background()

	userGen := rapid.SampledFrom([]types.UserID{"alice", "bob", "carol"})
	nameGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "base", "Base"})
	linkGen := rapid.StringMatching(`ipfs://[a-z0-9]{1,8}`)

	ops := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) op {
		return op{
			create: rapid.Bool().Draw(t, "create"),
			user:   userGen.Draw(t, "user"),
			name:   nameGen.Draw(t, "name"),
			link:   linkGen.Draw(t, "link"),
		}
	}), 1, 40).Draw(rt, "ops")

	order := make(map[types.UserID][]string)
	links := make(map[types.UserID]map[string]string)

	for _, o := range ops {
		bound, exists := links[o.user][o.name]

		if o.create {
			err := m.CreateLayer(ctx, o.user, o.name, o.link)
			if exists {
				if !assert.ErrorIs(rt, err, registry.ErrLayerAlreadyExists) {
					rt.FailNow()
				}
				continue
			}
			if !assert.NoError(rt, err) {
				rt.FailNow()
			}
			if links[o.user] == nil {
				links[o.user] = make(map[string]string)
			}
			links[o.user][o.name] = o.link
			order[o.user] = append(order[o.user], o.name)
			continue
		}

		link, err := m.ResolveLink(ctx, o.user, o.name)
		if exists {
			if !assert.NoError(rt, err) || !assert.Equal(rt, bound, link) {
				rt.FailNow()
			}
		} else if !assert.ErrorIs(rt, err, registry.ErrLayerNotFound) {
			rt.FailNow()
		}
	}

	for user, want := range order {
		got, err := m.Layers(ctx, user)
		if !assert.NoError(rt, err) || !assert.Equal(rt, want, got) {
			rt.FailNow()
		}

		seen := make(map[string]bool, len(got))
		for _, name := range got {
			if seen[name] {
				rt.Fatalf("duplicate %q in layers of %s", name, user)
			}
			seen[name] = true

			link, err := m.ResolveLink(ctx, user, name)
			if !assert.NoError(rt, err) || !assert.Equal(rt, links[user][name], link) {
				rt.FailNow()
			}
		}
	}
}
