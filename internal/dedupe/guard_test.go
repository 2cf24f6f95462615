package dedupe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newGuard(window time.Duration, max int) (*MemoryGuard, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewMemoryGuard(window, max)
	g.now = clock.Now
	return g, clock
}

func TestMemoryGuard_Window(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, clock := newGuard(5*time.Second, 10)
	key := Key("Equipment", 7)

	ok, err := g.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(4 * time.Second)
	ok, _ = g.Acquire(ctx, key)
	assert.False(t, ok, "second submission inside the window must be rejected")

	ok, _ = g.Acquire(ctx, Key("Leave", 7))
	assert.True(t, ok, "other keys are independent")

	clock.Advance(2 * time.Second)
	ok, _ = g.Acquire(ctx, key)
	assert.True(t, ok, "window elapsed")
}

func TestMemoryGuard_Release(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, _ := newGuard(time.Minute, 10)

	ok, _ := g.Acquire(ctx, "k")
	require.True(t, ok)
	require.NoError(t, g.Release(ctx, "k"))

	ok, _ = g.Acquire(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryGuard_SweepsExpiredOnInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, clock := newGuard(time.Second, 100)

	for i := 0; i < 5; i++ {
		_, _ = g.Acquire(ctx, fmt.Sprintf("k%d", i))
	}
	assert.Equal(t, 5, g.Len())

	clock.Advance(2 * time.Second)
	_, _ = g.Acquire(ctx, "fresh")
	assert.Equal(t, 1, g.Len())
}

func TestMemoryGuard_EvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g, clock := newGuard(time.Hour, 3)

	for _, k := range []string{"a", "b", "c"} {
		_, _ = g.Acquire(ctx, k)
		clock.Advance(time.Second)
	}
	_, _ = g.Acquire(ctx, "d")
	assert.Equal(t, 3, g.Len())

	ok, _ := g.Acquire(ctx, "a")
	assert.True(t, ok, "oldest entry was evicted")

	ok, _ = g.Acquire(ctx, "d")
	assert.False(t, ok)
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := NewMemoryGuard(time.Minute, 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Acquire(ctx, "same"); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is required for tests")
	}

	ctx := context.Background()
	rdb, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	g := NewRedisGuard(rdb, 500*time.Millisecond)
	key := Key("Equipment", uint(time.Now().UnixNano()%1e6))

	ok, err := g.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Release(ctx, key))
	ok, err = g.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}
