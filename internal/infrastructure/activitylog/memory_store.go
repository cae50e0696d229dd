package activitylog

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory, newest first.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make([]Entry, 0, MaxEntries)}
}

// Append inserts entry at the head and drops the oldest beyond MaxEntries
func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries)
	s.entries[0] = entry
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]Entry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}

// Clear removes all entries
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	return nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
