package ratelimit

import (
	"sync"
	"time"
)

// CounterStore holds window counters keyed by an opaque string. The store is
// injected so a shared backend (e.g. a key-value cache) can coordinate limits
// across instances; the bundled implementation is per-process only.
type CounterStore interface {
	// Increment bumps the counter for key, creating it with the given reset
	// time on first use, and returns the new count.
	Increment(key string, resetAt time.Time) int
	// Get returns the current count for key without mutating it.
	Get(key string) int
	// ResetAt returns the expiry of the counter for key, or zero if absent.
	ResetAt(key string) time.Time
	// Sweep removes counters whose reset time has passed.
	Sweep(now time.Time)
}

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a mutex-guarded in-memory CounterStore. Handlers run on
// separate goroutines, so unlike an event-loop runtime the map needs a lock.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*counter)}
}

func (s *MemoryStore) Increment(key string, resetAt time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		c = &counter{resetAt: resetAt}
		s.counters[key] = c
	}
	c.count++
	return c.count
}

func (s *MemoryStore) Get(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return c.count
	}
	return 0
}

func (s *MemoryStore) ResetAt(key string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[key]; ok {
		return c.resetAt
	}
	return time.Time{}
}

func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.counters {
		if c.resetAt.Before(now) {
			delete(s.counters, key)
		}
	}
}
