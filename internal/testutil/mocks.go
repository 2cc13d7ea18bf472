// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/galaxy/internal/events"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// MockStore is a mock implementation of registry.Store for testing.
type MockStore struct {
	mock.Mock
}

// Layers mocks the Layers method.
func (m *MockStore) Layers(ctx context.Context, user types.UserID) ([]string, bool, error) {
	args := m.Called(ctx, user)
	var layers []string
	if v := args.Get(0); v != nil {
		layers = v.([]string)
	}
	return layers, args.Bool(1), args.Error(2)
}

// Link mocks the Link method.
func (m *MockStore) Link(ctx context.Context, user types.UserID, name string) (string, bool, error) {
	args := m.Called(ctx, user, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

// Commit mocks the Commit method.
func (m *MockStore) Commit(ctx context.Context, layers []string, layer types.Layer) error {
	args := m.Called(ctx, layers, layer)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockNotifier is a mock implementation of registry.Notifier for testing.
type MockNotifier struct {
	mock.Mock
}

// Notify mocks the Notify method.
func (m *MockNotifier) Notify(ctx context.Context, layer types.Layer) error {
	args := m.Called(ctx, layer)
	return args.Error(0)
}

// NewMockNotifier creates a notifier that accepts every event.
func NewMockNotifier(t *testing.T) *MockNotifier {
	t.Helper()
	m := new(MockNotifier)
	m.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// LayerMatcher matches a types.Layer by user, name and link, ignoring the timestamp.
func LayerMatcher(user types.UserID, name, link string) interface{} {
	return mock.MatchedBy(func(l types.Layer) bool {
		return l.User == user && l.Name == name && l.Link == link
	})
}

// MockSource is a mock implementation of identity.Source for testing.
type MockSource struct {
	mock.Mock
}

// Authenticate mocks the Authenticate method.
func (m *MockSource) Authenticate(ctx context.Context, token string) (types.UserID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(types.UserID), args.Error(1)
}

// MockSink is a mock implementation of events.Sink for testing.
type MockSink struct {
	mock.Mock
}

// Name returns the sink label used in metrics.
func (m *MockSink) Name() string { return "mock" }

// Publish mocks the Publish method.
func (m *MockSink) Publish(event events.LayerCreated) error {
	args := m.Called(event)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
