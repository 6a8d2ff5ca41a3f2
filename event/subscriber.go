package event

import (
	"sync"
	"sync/atomic"
)

// Subscriber receives notifications for the types it subscribed to over
// a buffered channel. Delivery is non-blocking: a subscriber that falls
// behind drops notifications rather than stalling the publisher.
type Subscriber struct {
	id string
	ch chan *Notification

	// types tracks which notification types this subscriber wants.
	types map[Type]struct{}
	mu    sync.RWMutex

	// closed prevents double-close of the channel.
	closed atomic.Bool
}

func newSubscriber(id string, bufferSize int, types []Type) *Subscriber {
	s := &Subscriber{
		id:    id,
		ch:    make(chan *Notification, bufferSize),
		types: make(map[Type]struct{}, len(types)),
	}
	for _, t := range types {
		s.types[t] = struct{}{}
	}
	return s
}

// ID returns the subscriber identifier.
func (s *Subscriber) ID() string { return s.id }

// C returns the read-only notification channel. It is closed when the
// subscriber is removed from the bus or the bus shuts down.
func (s *Subscriber) C() <-chan *Notification { return s.ch }

// Types returns a copy of the subscribed notification types.
func (s *Subscriber) Types() []Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Type, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	return out
}

func (s *Subscriber) wants(t Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[t]
	return ok
}

// send attempts to deliver a notification. Returns false if it was
// dropped (type mismatch, full buffer, or closed subscriber).
func (s *Subscriber) send(n *Notification) bool {
	if s.closed.Load() || !s.wants(n.Type) {
		return false
	}

	// Non-blocking send.
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

// close closes the subscriber channel. Safe to call more than once.
func (s *Subscriber) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}
