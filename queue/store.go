package queue

import "sync"

// Store maps rate-limit group ids to their queues. Queues are created
// lazily on first use and never destroyed; the set of groups is small
// and bounded. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	queues map[string]*Queue
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{queues: make(map[string]*Queue)}
}

// Resolve returns the queue for groupID, creating it if needed.
func (s *Store) Resolve(groupID string) *Queue {
	s.mu.RLock()
	q, ok := s.queues[groupID]
	s.mu.RUnlock()
	if ok {
		return q
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[groupID]; ok {
		return q
	}
	q = NewQueue(groupID)
	s.queues[groupID] = q
	return q
}

// Get returns the queue for groupID, or nil if none exists yet.
func (s *Store) Get(groupID string) *Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queues[groupID]
}

// All returns a snapshot of every queue.
func (s *Store) All() []*Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Queue, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, q)
	}
	return out
}

// PurgeCanceled removes canceled items from every queue and returns
// them for settlement.
func (s *Store) PurgeCanceled() []*Item {
	var removed []*Item
	for _, q := range s.All() {
		removed = append(removed, q.PurgeCanceled()...)
	}
	return removed
}
