package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// MemoryStore holds counters in a mutex-guarded map. It is the default
// backend for single-process deployments.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.items[key]
	if entry == nil || now.After(entry.resetAt) {
		// Stale windows are replaced outright, never decayed.
		entry = &memoryEntry{resetAt: now.Add(window)}
		s.items[key] = entry
	}
	entry.count++
	return entry.count, entry.resetAt, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.items {
		if entry.resetAt.Before(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many identifiers currently hold a window.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
