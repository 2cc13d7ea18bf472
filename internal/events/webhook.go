package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/galaxy/internal/infrastructure/resilience"
)

var (
	// ErrQueueFull is returned by Webhook.Publish when delivery is backed up
	ErrQueueFull = errors.New("webhook queue full")
	// ErrSinkClosed is returned when publishing to a closed sink
	ErrSinkClosed = errors.New("sink closed")
)

// WebhookConfig configures outbound event delivery
type WebhookConfig struct {
	URL          string
	Retries      int
	QueueSize    int
	Timeout      time.Duration
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	DrainTimeout time.Duration
}

// DefaultWebhookConfig returns production defaults for url
func DefaultWebhookConfig(url string) WebhookConfig {
	return WebhookConfig{
		URL:          url,
		Retries:      3,
		QueueSize:    defaultBufferSize,
		Timeout:      10 * time.Second,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		DrainTimeout: 10 * time.Second,
	}
}

// Webhook POSTs each event as JSON to a fixed URL from a single background
// worker, so events reach the endpoint in publish order.
type Webhook struct {
	cfg     WebhookConfig
	client  *retryablehttp.Client
	breaker *resilience.Breaker
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan LayerCreated
	done   chan struct{}
}

var _ Sink = (*Webhook)(nil)

// NewWebhook creates the sink and starts its delivery worker
func NewWebhook(cfg WebhookConfig, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("webhook")
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultBufferSize
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = leveledLogger{logger.Sugar()}

	w := &Webhook{
		cfg:    cfg,
		client: client,
		logger: logger,
		queue:  make(chan LayerCreated, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	w.breaker = resilience.New("webhook", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Webhook breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	go w.run()
	return w
}

// Name implements Sink
func (w *Webhook) Name() string { return "webhook" }

// Publish implements Sink. It only enqueues.
func (w *Webhook) Publish(event LayerCreated) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return ErrSinkClosed
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits up to DrainTimeout for the queue to empty
func (w *Webhook) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	timeout := w.cfg.DrainTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("webhook drain timed out with %d events pending", len(w.queue))
	}
}

func (w *Webhook) run() {
	defer close(w.done)

	for event := range w.queue {
		err := w.breaker.Call(func() error {
			return w.deliver(event)
		})
		if err != nil {
			w.logger.Warn("Failed to deliver event",
				zap.String("id", string(event.ID)),
				zap.String("user", event.User.String()),
				zap.Error(err),
			)
		}
	}
}

func (w *Webhook) deliver(event LayerCreated) error {
	body, err := sonic.Marshal(event)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "galaxy-webhook/1.0")
	req.Header.Set("X-Event-Id", string(event.ID))
	req.Header.Set("X-Event-Type", event.Type)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
