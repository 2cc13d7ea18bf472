package events

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// Sink accepts events without blocking on delivery
type Sink interface {
	Name() string
	Publish(event LayerCreated) error
	Close() error
}

// Dispatcher turns committed layers into LayerCreated events and hands each
// one to every sink. It implements registry.Notifier.
type Dispatcher struct {
	sinks   []Sink
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher over the given sinks
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:  sinks,
		logger: zap.NewNop(),
	}
}

// WithMetrics adds per-sink delivery counters
func (d *Dispatcher) WithMetrics(metrics *monitoring.Metrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// WithLogger sets the dispatcher's logger
func (d *Dispatcher) WithLogger(logger *zap.Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger.Named("events")
	}
	return d
}

// Notify publishes the layer's creation event to every sink.
// A failing sink does not stop the others; the failures are joined.
func (d *Dispatcher) Notify(_ context.Context, layer types.Layer) error {
	event := NewLayerCreated(layer)

	var errs []error
	for _, sink := range d.sinks {
		err := sink.Publish(event)
		if d.metrics != nil {
			d.metrics.RecordEvent(sink.Name(), err == nil)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}

	d.logger.Debug("Dispatched event",
		zap.String("id", string(event.ID)),
		zap.String("user", event.User.String()),
		zap.String("layer", event.LayerName),
		zap.Int("sinks", len(d.sinks)),
	)
	return errors.Join(errs...)
}

// Close closes every sink
func (d *Dispatcher) Close() error {
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
