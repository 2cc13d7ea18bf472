package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	b := New("test", settings)
	b.now = clock.Now
	return b, clock
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Settings{Threshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Call(fail), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(Settings{Threshold: 3, Cooldown: time.Minute})

	require.Error(t, b.Call(fail))
	require.Error(t, b.Call(fail))
	require.NoError(t, b.Call(succeed))
	assert.Zero(t, b.Failures())

	require.Error(t, b.Call(fail))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	tests := []struct {
		name  string
		trial func() error
		want  State
	}{
		{name: "trial success closes", trial: succeed, want: StateClosed},
		{name: "trial failure reopens", trial: fail, want: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Second})

			require.Error(t, b.Call(fail))
			assert.Equal(t, StateOpen, b.State())

			clock.Advance(2 * time.Second)
			assert.Equal(t, StateHalfOpen, b.State())

			_ = b.Call(tt.trial)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerSingleTrial(t *testing.T) {
	b, clock := newTestBreaker(Settings{Threshold: 1, Cooldown: time.Second})
	require.Error(t, b.Call(fail))
	clock.Advance(2 * time.Second)

	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Call(func() error { <-release; return nil })
	}()

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.trial
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, b.Call(succeed), ErrOpen)

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	b, clock := newTestBreaker(Settings{
		Threshold: 1,
		Cooldown:  time.Second,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	require.Error(t, b.Call(fail))
	clock.Advance(2 * time.Second)
	require.NoError(t, b.Call(succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
