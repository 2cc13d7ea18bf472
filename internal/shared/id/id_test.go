package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{EventPrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		require.True(t, strings.HasPrefix(id, prefix+"_"), "ID should start with %s_, got %s", prefix, id)
		parts := strings.Split(id, "_")
		require.Len(t, parts, 2)
		assert.Len(t, parts[1], 26)
		assert.True(t, IsValid(id))
	}
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewEventID().String(), "evt_"))
	assert.True(t, strings.HasPrefix(NewRequestID().String(), "req_"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(NewGenerator().GenerateString()))

	for _, id := range []string{"", "invalid", "1234567890", "evt_zzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, IsValid(id), "ID should be invalid: %q", id)
	}
}

func TestAccountID(t *testing.T) {
	a := NewAccountID()
	b := NewAccountID()

	assert.NotEqual(t, a, b)
	assert.True(t, IsAccountID(a))
	assert.False(t, IsAccountID("not-a-uuid"))
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	id := NewEventID()
	after := time.Now()

	ts, err := Timestamp(id.String())
	require.NoError(t, err)

	// millisecond precision
	assert.GreaterOrEqual(t, ts.UnixMilli(), before.UnixMilli())
	assert.LessOrEqual(t, ts.UnixMilli(), after.UnixMilli())
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- gen.GenerateString()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate ID: %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestMonotonicWithinProcess(t *testing.T) {
	gen := NewGenerator()

	prev := gen.GenerateString()
	for i := 0; i < 1000; i++ {
		next := gen.GenerateString()
		require.Greater(t, next, prev)
		prev = next
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(EventPrefix)
	}
}
