package cursor

import "sync"

// Store maps source identities to the highest sequence number already
// processed for that source. Values only move forward; the ingestion
// coordinator is the single writer.
type Store struct {
	mu      sync.RWMutex
	cursors map[string]int64
}

// NewStore returns an empty in-memory cursor store. Cursors do not survive
// a process restart; on restart every source warm-starts again.
func NewStore() *Store {
	return &Store{cursors: make(map[string]int64)}
}

// Get returns the cursor for the source, if one exists.
func (s *Store) Get(sourceID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.cursors[sourceID]
	return seq, ok
}

// Advance moves the cursor forward to newMax. It is a no-op when newMax is
// not greater than the current value, which keeps cursors monotonic even on
// out-of-order calls. Reports whether the cursor moved.
func (s *Store) Advance(sourceID string, newMax int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cursors[sourceID]
	if ok && newMax <= current {
		return false
	}
	s.cursors[sourceID] = newMax
	return true
}

// Seed sets the initial cursor for a source never seen before. It is a
// no-op when a cursor already exists. Reports whether it seeded.
func (s *Store) Seed(sourceID string, currentMax int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[sourceID]; ok {
		return false
	}
	s.cursors[sourceID] = currentMax
	return true
}

// Len returns the number of tracked sources.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cursors)
}
