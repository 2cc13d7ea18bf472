package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

func TestMemoryStoreStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	m := registry.NewManager(store)

	require.NoError(t, m.CreateLayer(ctx, "bob", "x", "ipfs://x"))
	require.NoError(t, m.CreateLayer(ctx, "alice", "b", "ipfs://b"))
	require.NoError(t, m.CreateLayer(ctx, "alice", "a", "ipfs://a"))

	state := store.State()
	require.NoError(t, state.Validate())
	assert.Equal(t, []string{"b", "a"}, state.Lists["alice"])
	require.Len(t, state.Links, 3)
	assert.Equal(t, "a", state.Links[0].Name)
	assert.Equal(t, types.UserID("bob"), state.Links[2].User)

	restored, err := registry.NewMemoryStoreFromState(state)
	require.NoError(t, err)

	link, err := registry.NewManager(restored).ResolveLink(ctx, "alice", "b")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://b", link)
}

func TestMemoryStoreStateIsCopy(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemoryStore()
	require.NoError(t, store.Commit(ctx, []string{"a"}, types.Layer{User: "alice", Name: "a", Link: "ipfs://a"}))

	state := store.State()
	state.Lists["alice"][0] = "mutated"

	layers, _, err := store.Layers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, layers)
}

func TestStateValidate(t *testing.T) {
	layer := func(user types.UserID, name string) types.Layer {
		return types.Layer{User: user, Name: name, Link: "ipfs://" + name}
	}

	tests := []struct {
		name    string
		state   registry.State
		wantErr bool
	}{
		{
			name:  "empty",
			state: registry.State{},
		},
		{
			name: "consistent",
			state: registry.State{
				Lists: map[types.UserID][]string{"alice": {"a", "b"}, "bob": {"a"}},
				Links: []types.Layer{layer("alice", "a"), layer("alice", "b"), layer("bob", "a")},
			},
		},
		{
			name: "duplicate name in list",
			state: registry.State{
				Lists: map[types.UserID][]string{"alice": {"a", "a"}},
				Links: []types.Layer{layer("alice", "a")},
			},
			wantErr: true,
		},
		{
			name: "listed without binding",
			state: registry.State{
				Lists: map[types.UserID][]string{"alice": {"a", "b"}},
				Links: []types.Layer{layer("alice", "a")},
			},
			wantErr: true,
		},
		{
			name: "binding without listing",
			state: registry.State{
				Lists: map[types.UserID][]string{"alice": {"a"}},
				Links: []types.Layer{layer("alice", "a"), layer("bob", "a")},
			},
			wantErr: true,
		},
		{
			name: "duplicate binding",
			state: registry.State{
				Lists: map[types.UserID][]string{"alice": {"a"}},
				Links: []types.Layer{layer("alice", "a"), layer("alice", "a")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, registry.IsConsistencyError(err))
				_, err = registry.NewMemoryStoreFromState(tt.state)
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStateApply(t *testing.T) {
	var state registry.State
	state.Apply([]string{"a"}, types.Layer{User: "alice", Name: "a", Link: "ipfs://a"})
	state.Apply([]string{"a", "b"}, types.Layer{User: "alice", Name: "b", Link: "ipfs://b"})

	require.NoError(t, state.Validate())
	assert.Equal(t, []string{"a", "b"}, state.Lists["alice"])
	assert.Len(t, state.Links, 2)
}
