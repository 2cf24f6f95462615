// Package dedupe suppresses accidental double submissions of the same logical
// create call. Guards are best effort: a gap longer than the window, or a
// second process when the memory guard is used, is not caught.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultWindow     = 5 * time.Second
	DefaultMaxEntries = 10000
)

type Guard interface {
	// Acquire reports false when key was already acquired within the window.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Key builds the marker key for a request submission.
func Key(requestType string, employeeID uint) string {
	return fmt.Sprintf("request:%s:%d", requestType, employeeID)
}

type MemoryGuard struct {
	window     time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryGuard(window time.Duration, maxEntries int) *MemoryGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryGuard{
		window:     window,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]time.Time),
	}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if at, ok := g.entries[key]; ok && now.Sub(at) < g.window {
		return false, nil
	}

	g.sweepLocked(now)
	for len(g.entries) >= g.maxEntries {
		g.evictOldestLocked()
	}
	g.entries[key] = now
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
	return nil
}

func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *MemoryGuard) sweepLocked(now time.Time) {
	for k, at := range g.entries {
		if now.Sub(at) >= g.window {
			delete(g.entries, k)
		}
	}
}

func (g *MemoryGuard) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, at := range g.entries {
		if !found || at.Before(oldestAt) {
			oldestKey, oldestAt, found = k, at, true
		}
	}
	if found {
		delete(g.entries, oldestKey)
	}
}

// Nop never rejects.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (bool, error) { return true, nil }
func (Nop) Release(context.Context, string) error         { return nil }
