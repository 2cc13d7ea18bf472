package registry

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Store persists the two keyed maps behind the registry: the ordered layer
// list per user and the (user, name) -> link table.
type Store interface {
	// Layers returns a copy of the user's ordered layer list.
	// ok is false when the user has never registered a layer.
	Layers(ctx context.Context, user types.UserID) (layers []string, ok bool, err error)

	// Link returns the link bound to (user, name).
	Link(ctx context.Context, user types.UserID, name string) (link string, ok bool, err error)

	// Commit replaces layer.User's list with layers and inserts the binding.
	// Both writes become visible together or not at all.
	Commit(ctx context.Context, layers []string, layer types.Layer) error

	// Close releases underlying resources
	Close() error
}

type linkKey struct {
	user types.UserID
	name string
}

// MemoryStore is a Store held entirely in process memory.
// A single RWMutex publishes a commit's list and binding atomically, so
// readers always observe both or neither.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[types.UserID][]string
	links map[linkKey]types.Layer
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists: make(map[types.UserID][]string),
		links: make(map[linkKey]types.Layer),
	}
}

// NewMemoryStoreFromState rebuilds a store from a persisted state after
// checking it is internally consistent.
func NewMemoryStoreFromState(state State) (*MemoryStore, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}

	s := NewMemoryStore()
	for user, layers := range state.Lists {
		s.lists[user] = slices.Clone(layers)
	}
	for _, layer := range state.Links {
		s.links[linkKey{layer.User, layer.Name}] = layer
	}
	return s, nil
}

// Layers implements Store
func (s *MemoryStore) Layers(_ context.Context, user types.UserID) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layers, ok := s.lists[user]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(layers), true, nil
}

// Link implements Store
func (s *MemoryStore) Link(_ context.Context, user types.UserID, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.links[linkKey{user, name}]
	return layer.Link, ok, nil
}

// Commit implements Store
func (s *MemoryStore) Commit(_ context.Context, layers []string, layer types.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey{layer.User, layer.Name}
	if _, exists := s.links[key]; exists {
		return &ConsistencyError{User: layer.User, Name: layer.Name, Reason: "binding already present"}
	}

	s.lists[layer.User] = slices.Clone(layers)
	s.links[key] = layer
	return nil
}

// Close implements Store
func (s *MemoryStore) Close() error { return nil }

// State returns a deep copy of the store contents
func (s *MemoryStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Lists: make(map[types.UserID][]string, len(s.lists)),
		Links: make([]types.Layer, 0, len(s.links)),
	}
	for user, layers := range s.lists {
		state.Lists[user] = slices.Clone(layers)
	}
	for _, layer := range s.links {
		state.Links = append(state.Links, layer)
	}
	state.sortLinks()
	return state
}

// State is a serializable image of the whole registry
type State struct {
	Lists map[types.UserID][]string `json:"lists"`
	Links []types.Layer             `json:"links"`
}

// Apply adds one commit to the state, mirroring Store.Commit
func (st *State) Apply(layers []string, layer types.Layer) {
	if st.Lists == nil {
		st.Lists = make(map[types.UserID][]string)
	}
	st.Lists[layer.User] = slices.Clone(layers)
	st.Links = append(st.Links, layer)
}

// Validate checks that lists hold distinct names and that lists and links
// describe exactly the same (user, name) pairs.
func (st State) Validate() error {
	listed := make(map[linkKey]bool)
	for user, layers := range st.Lists {
		for _, name := range layers {
			key := linkKey{user, name}
			if listed[key] {
				return &ConsistencyError{User: user, Name: name, Reason: "duplicate name in layer list"}
			}
			listed[key] = true
		}
	}

	bound := make(map[linkKey]bool, len(st.Links))
	for _, layer := range st.Links {
		key := linkKey{layer.User, layer.Name}
		if bound[key] {
			return &ConsistencyError{User: layer.User, Name: layer.Name, Reason: "duplicate binding"}
		}
		if !listed[key] {
			return &ConsistencyError{User: layer.User, Name: layer.Name, Reason: "binding missing from layer list"}
		}
		bound[key] = true
	}

	if len(bound) != len(listed) {
		for key := range listed {
			if !bound[key] {
				return &ConsistencyError{User: key.user, Name: key.name, Reason: "listed layer has no binding"}
			}
		}
		return fmt.Errorf("registry state: %d listed layers but %d bindings", len(listed), len(bound))
	}

	return nil
}

func (st *State) sortLinks() {
	sort.Slice(st.Links, func(i, j int) bool {
		if st.Links[i].User != st.Links[j].User {
			return st.Links[i].User < st.Links[j].User
		}
		return st.Links[i].Name < st.Links[j].Name
	})
}
