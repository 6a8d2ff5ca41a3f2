package queue

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/cancel"
)

// outcome is the terminal result of an item: a response or an error,
// never both.
type outcome struct {
	resp *sendq.Response
	err  error
}

// Item is one queued request together with everything the scheduler
// needs to dispatch it: the resolved rate limit, the priority, the
// cancellation token, and the single-use settlement handle.
type Item struct {
	Request   *sendq.Request
	RateLimit sendq.RateLimit
	Priority  sendq.Priority
	Scope     string
	Key       string
	Token     *cancel.Token

	// EnqueuedAt is the insertion timestamp, used for queue-latency
	// observability. Ordering among equal priorities is positional,
	// not timestamp-based.
	EnqueuedAt time.Time

	once sync.Once
	done chan outcome
}

// NewItem creates a queued item for the given request.
func NewItem(req *sendq.Request, rl sendq.RateLimit, prio sendq.Priority, scope, key string, tok *cancel.Token, now time.Time) *Item {
	return &Item{
		Request:    req,
		RateLimit:  rl,
		Priority:   prio,
		Scope:      scope,
		Key:        key,
		Token:      tok,
		EnqueuedAt: now,
		done:       make(chan outcome, 1),
	}
}

// Resolve settles the item with a response. The first settlement wins;
// later Resolve or Reject calls are no-ops.
func (it *Item) Resolve(resp *sendq.Response) {
	it.once.Do(func() {
		it.done <- outcome{resp: resp}
	})
}

// Reject settles the item with an error. The first settlement wins;
// later Resolve or Reject calls are no-ops.
func (it *Item) Reject(err error) {
	it.once.Do(func() {
		it.done <- outcome{err: err}
	})
}

// Wait blocks until the item settles or ctx expires. Abandoning the wait
// does not cancel the queued request; use the manager's cancel methods
// for that.
func (it *Item) Wait(ctx context.Context) (*sendq.Response, error) {
	select {
	case out := <-it.done:
		// Re-buffer so concurrent or repeated waiters observe the
		// same settlement.
		it.done <- out
		return out.resp, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Canceled reports whether the item's cancellation token has fired.
func (it *Item) Canceled() bool {
	return it.Token != nil && it.Token.Triggered()
}
