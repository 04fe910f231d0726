package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is an in-process CounterStore for tests and
// single-instance deployments. Limits enforced through it are per-process,
// not cluster-wide.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryCounterStore creates an empty in-process counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]*memoryCounter)}
}

// IncrementAndGet implements the CounterStore interface.
func (s *MemoryCounterStore) IncrementAndGet(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	c, ok := s.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++

	// Expired keys from past windows are dropped opportunistically to
	// keep the map bounded.
	for k, v := range s.counters {
		if now.After(v.expiresAt) {
			delete(s.counters, k)
		}
	}

	return c.count, nil
}
