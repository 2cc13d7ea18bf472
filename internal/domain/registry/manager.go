package registry

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Notifier receives a LayerCreated notification after a successful commit.
// Delivery is best-effort: a failure is logged and never undoes the commit.
type Notifier interface {
	Notify(ctx context.Context, layer types.Layer) error
}

// Manager is the layer registry: per-user ordered layer lists plus the
// (user, name) -> link table, kept in lockstep by the Store.
type Manager struct {
	store    Store
	notifier Notifier
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	locks    userLocks
	now      func() time.Time

	created  atomic.Int64
	rejected atomic.Int64
	resolved atomic.Int64
	missed   atomic.Int64
}

// NewManager creates a registry over the given store
func NewManager(store Store) *Manager {
	return &Manager{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

// WithNotifier sets the sink for creation events
func (m *Manager) WithNotifier(notifier Notifier) *Manager {
	m.notifier = notifier
	return m
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithLogger sets the manager's logger
func (m *Manager) WithLogger(logger *zap.Logger) *Manager {
	if logger != nil {
		m.logger = logger.Named("registry")
	}
	return m
}

// CreateLayer registers name -> link in the caller's namespace.
// The caller must come from an identity source, never from request input.
func (m *Manager) CreateLayer(ctx context.Context, caller types.UserID, name, link string) error {
	unlock := m.locks.lock(caller)
	defer unlock()

	log := m.logger.With(tracing.Fields(ctx)...)

	timer := monitoring.NewTimer(m.metrics, "layers")
	layers, _, err := m.store.Layers(ctx, caller)
	timer.Stop(err)
	if err != nil {
		return fmt.Errorf("failed to read layers for %s: %w", caller, err)
	}

	if slices.Contains(layers, name) {
		m.rejected.Add(1)
		if m.metrics != nil {
			m.metrics.IncLayersRejected()
		}
		log.Debug("Rejected duplicate layer",
			zap.String("user", caller.String()),
			zap.String("layer", name),
		)
		return fmt.Errorf("%w: %q for user %s", ErrLayerAlreadyExists, name, caller)
	}

	next := make([]string, len(layers), len(layers)+1)
	copy(next, layers)
	next = append(next, name)

	layer := types.Layer{
		User:      caller,
		Name:      name,
		Link:      link,
		CreatedAt: m.now().UTC(),
	}

	timer = monitoring.NewTimer(m.metrics, "commit")
	err = m.store.Commit(ctx, next, layer)
	timer.Stop(err)
	if err != nil {
		if IsConsistencyError(err) {
			log.Error("Store rejected commit", zap.Error(err))
		}
		return fmt.Errorf("failed to commit layer %q: %w", name, err)
	}

	m.created.Add(1)
	if m.metrics != nil {
		m.metrics.IncLayersCreated()
	}
	log.Debug("Created layer",
		zap.String("user", caller.String()),
		zap.String("layer", name),
		zap.Int("count", len(next)),
	)

	m.notify(ctx, log, layer)
	return nil
}

// ResolveLink returns the link bound to user's layer. Any user may be queried.
func (m *Manager) ResolveLink(ctx context.Context, user types.UserID, name string) (string, error) {
	timer := monitoring.NewTimer(m.metrics, "layers")
	layers, ok, err := m.store.Layers(ctx, user)
	timer.Stop(err)
	if err != nil {
		return "", fmt.Errorf("failed to read layers for %s: %w", user, err)
	}

	// The list is authoritative; the link table is only consulted for listed names
	if !ok || !slices.Contains(layers, name) {
		m.missed.Add(1)
		m.recordResolve("miss")
		return "", fmt.Errorf("%w: %q for user %s", ErrLayerNotFound, name, user)
	}

	timer = monitoring.NewTimer(m.metrics, "link")
	link, ok, err := m.store.Link(ctx, user, name)
	timer.Stop(err)
	if err != nil {
		return "", fmt.Errorf("failed to read link for %s/%q: %w", user, name, err)
	}
	if !ok {
		m.recordResolve("fault")
		fault := &ConsistencyError{User: user, Name: name, Reason: "listed layer has no link"}
		m.logger.Error("Layer list and link table disagree", append(tracing.Fields(ctx), zap.Error(fault))...)
		return "", fault
	}

	m.resolved.Add(1)
	m.recordResolve("hit")
	return link, nil
}

// Layers returns the user's layers in registration order.
// Unknown users have an empty list.
func (m *Manager) Layers(ctx context.Context, user types.UserID) ([]string, error) {
	layers, _, err := m.store.Layers(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to read layers for %s: %w", user, err)
	}
	if layers == nil {
		return []string{}, nil
	}
	return layers, nil
}

// Stats returns registry counters since start
func (m *Manager) Stats() types.RegistryStats {
	return types.RegistryStats{
		Created:  m.created.Load(),
		Rejected: m.rejected.Load(),
		Resolved: m.resolved.Load(),
		Missed:   m.missed.Load(),
	}
}

func (m *Manager) notify(ctx context.Context, log *zap.Logger, layer types.Layer) {
	if m.notifier == nil {
		return
	}

	// The commit is final; a cancelled request must not cancel its notification
	if err := m.notifier.Notify(context.WithoutCancel(ctx), layer); err != nil {
		log.Warn("Layer notification failed",
			zap.String("user", layer.User.String()),
			zap.String("layer", layer.Name),
			zap.Error(err),
		)
	}
}

func (m *Manager) recordResolve(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordResolve(outcome)
	}
}
