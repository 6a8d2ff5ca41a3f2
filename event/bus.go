package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the default per-subscriber notification buffer.
const DefaultBufferSize = 64

// Bus is an in-process publish/subscribe bus with at-least-once,
// best-effort delivery to live subscribers. Slow subscribers drop
// notifications instead of blocking publishers.
type Bus struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool

	bufferSize int

	// Metrics.
	totalPublished atomic.Int64
	totalDropped   atomic.Int64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBufferSize sets the per-subscriber notification buffer size.
func WithBufferSize(size int) BusOption {
	return func(b *Bus) { b.bufferSize = size }
}

// NewBus creates a notification bus.
func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger:      logger,
		subscribers: make(map[string]*Subscriber),
		bufferSize:  DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber for the given notification types.
func (b *Bus) Subscribe(types ...Type) *Subscriber {
	sub := newSubscriber(uuid.NewString(), b.bufferSize, types)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.close()
		return sub
	}
	b.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	sub, ok := b.subscribers[subscriberID]
	if ok {
		delete(b.subscribers, subscriberID)
	}
	b.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Publish delivers the notification to every live subscriber of its
// type and returns the number of deliveries. Never blocks.
func (b *Bus) Publish(n *Notification) int {
	if n.Time.IsZero() {
		n.Time = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if s.send(n) {
			delivered++
		} else if s.wants(n.Type) {
			b.totalDropped.Add(1)
			b.logger.Warn("notification dropped",
				slog.String("type", string(n.Type)),
				slog.String("subscriber", s.id),
			)
		}
	}
	b.totalPublished.Add(int64(delivered))
	return delivered
}

// Stats returns bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	count := len(b.subscribers)
	b.mu.RUnlock()
	return Stats{
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    b.totalDropped.Load(),
	}
}

// Stats contains bus metrics.
type Stats struct {
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// Close removes all subscribers and closes their channels. Publishing
// after Close delivers to nobody.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[string]*Subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}
