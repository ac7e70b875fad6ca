package ratelimit

import (
	"context"
	"sync"
	"time"

	"showcase/modules/clock"
)

var _ CounterStore = (*MemoryCounter)(nil)

// MemoryCounter keeps counters in process memory. Used when no redis is configured;
// limits are then enforced per instance only.
type MemoryCounter struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]memoryEntry
	// expired entries are swept every sweepEvery increments
	sweepEvery int
	ops        int
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCounter(c clock.Clock) *MemoryCounter {
	return &MemoryCounter{
		clock:      clock.OrReal(c),
		entries:    make(map[string]memoryEntry),
		sweepEvery: 1024,
	}
}

// Incr implements CounterStore. The TTL is only set when the key is created.
func (m *MemoryCounter) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ops++
	if m.ops%m.sweepEvery == 0 {
		m.sweep(now)
	}

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = memoryEntry{expiresAt: now.Add(ttl)}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Get implements CounterStore.
func (m *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

func (m *MemoryCounter) sweep(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
