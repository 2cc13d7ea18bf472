package events

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

const defaultBufferSize = 64

type subscription struct {
	ch   chan LayerCreated
	user types.UserID
}

// Broker fans LayerCreated events out to in-process subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu         sync.RWMutex
	subs       map[*subscription]struct{}
	done       chan struct{}
	bufferSize int
	metrics    *monitoring.Metrics
}

var _ Sink = (*Broker)(nil)

// NewBroker creates a broker with the default buffer size (64)
func NewBroker() *Broker {
	return NewBrokerWithBuffer(defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker with a per-subscriber buffer of size
func NewBrokerWithBuffer(size int) *Broker {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Broker{
		subs:       make(map[*subscription]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// WithMetrics counts events dropped on full subscriber buffers
func (b *Broker) WithMetrics(metrics *monitoring.Metrics) *Broker {
	b.metrics = metrics
	return b
}

// Name implements Sink
func (b *Broker) Name() string { return "broker" }

// Subscribe returns a channel of events for user, or for everyone when user
// is empty. The channel is closed when ctx is cancelled or the broker closes.
func (b *Broker) Subscribe(ctx context.Context, user types.UserID) <-chan LayerCreated {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan LayerCreated)
		close(ch)
		return ch
	default:
	}

	sub := &subscription{ch: make(chan LayerCreated, b.bufferSize), user: user}
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub.ch)
		}
	}()

	return sub.ch
}

// Publish implements Sink
func (b *Broker) Publish(event LayerCreated) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return nil
	default:
	}

	for sub := range b.subs {
		if sub.user != "" && sub.user != event.User {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			if b.metrics != nil {
				b.metrics.RecordEvent("subscriber", false)
			}
		}
	}
	return nil
}

// Close shuts the broker down and closes every subscriber channel
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	return nil
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
