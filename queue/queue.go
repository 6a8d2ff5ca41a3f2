package queue

import (
	"sync"
	"time"

	"github.com/xraph/sendq"
)

// Queue holds the ordered items of one rate-limit group plus the group's
// scheduler state. Safe for concurrent use.
type Queue struct {
	groupID string

	mu           sync.Mutex
	items        []*Item
	running      bool
	lastDispatch time.Time
}

// NewQueue returns an empty queue for the given group.
func NewQueue(groupID string) *Queue {
	return &Queue{groupID: groupID}
}

// GroupID returns the rate-limit group this queue belongs to.
func (q *Queue) GroupID() string { return q.groupID }

// Insert places the item at its priority position: before the first
// existing item with strictly lower priority, after all items with equal
// or higher priority. This keeps the queue priority-descending with a
// stable FIFO order among equal priorities. O(n), acceptable because
// per-group depth is bounded by in-flight caller activity.
func (q *Queue) Insert(it *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := 0
	for i < len(q.items) && q.items[i].Priority >= it.Priority {
		i++
	}
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = it
}

// Head returns the highest-priority item without removing it, or nil if
// the queue is empty.
func (q *Queue) Head() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Remove deletes the item from the queue, preserving the order of the
// survivors. No-op if the item is no longer queued (e.g., already
// removed by a cancellation purge).
func (q *Queue) Remove(it *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, cur := range q.items {
		if cur == it {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// PurgeCanceled removes every item whose cancellation token has fired,
// without disturbing the relative order of the survivors, and returns
// the removed items so the caller can settle them.
func (q *Queue) PurgeCanceled() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed []*Item
	kept := q.items[:0]
	for _, it := range q.items {
		if it.Canceled() {
			removed = append(removed, it)
		} else {
			kept = append(kept, it)
		}
	}
	// Clear the tail so removed items become collectable.
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	return removed
}

// Drain removes and returns every queued item, used at shutdown.
func (q *Queue) Drain() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// TryActivate atomically flips the queue from idle to running. Returns
// false if a dispatch loop is already active, guaranteeing at most one
// loop per queue.
func (q *Queue) TryActivate() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return false
	}
	q.running = true
	return true
}

// DeactivateIfEmpty flips the queue back to idle if it has drained.
// The empty check and the flag change happen under one lock so an
// insert racing with loop exit either sees running=false and restarts
// the loop, or is observed by the loop before it exits.
func (q *Queue) DeactivateIfEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) > 0 {
		return false
	}
	q.running = false
	return true
}

// Deactivate unconditionally marks the queue idle (shutdown path).
func (q *Queue) Deactivate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.running = false
}

// Running reports whether a dispatch loop is active for this queue.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Stamp records a dispatch attempt at the given time. Only actual
// attempts advance the rate-limit clock; waits and purges do not.
func (q *Queue) Stamp(now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastDispatch = now
}

// NextAttemptIn returns how long the group must still wait before the
// head's rate limit permits another dispatch. Zero if no dispatch has
// happened yet or the interval has elapsed.
func (q *Queue) NextAttemptIn(rl sendq.RateLimit, now time.Time) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lastDispatch.IsZero() {
		return 0
	}
	wait := rl.Interval() - now.Sub(q.lastDispatch)
	if wait < 0 {
		return 0
	}
	return wait
}

// LastDispatch returns the time of the most recent dispatch attempt,
// zero if none.
func (q *Queue) LastDispatch() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastDispatch
}
