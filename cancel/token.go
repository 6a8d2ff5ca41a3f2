// Package cancel provides one-shot cancellation tokens keyed by opaque
// strings, with bulk triggering by key prefix for scope-wide cancellation
// (e.g., "everything belonging to tab 7").
package cancel

import (
	"context"

	"github.com/xraph/sendq/id"
)

// Token is a one-shot cancellation signal shared by every queued request
// registered under the same key. Triggering is idempotent: the first call
// fires the signal, subsequent calls are no-ops. Safe for concurrent use.
type Token struct {
	id      id.TokenID
	key     string
	ctx     context.Context
	trigger context.CancelFunc
}

func newToken(key string) *Token {
	ctx, cancel := context.WithCancel(context.Background())
	return &Token{
		id:      id.NewTokenID(),
		key:     key,
		ctx:     ctx,
		trigger: cancel,
	}
}

// ID returns the token's unique identifier.
func (t *Token) ID() id.TokenID { return t.id }

// Key returns the cancellation key this token was created for.
func (t *Token) Key() string { return t.key }

// Trigger fires the cancellation signal. Safe to call more than once.
func (t *Token) Trigger() { t.trigger() }

// Triggered reports whether the token has fired.
func (t *Token) Triggered() bool { return t.ctx.Err() != nil }

// Done returns a channel closed when the token fires. Senders select on
// it (via Bind) to abort in-flight work.
func (t *Token) Done() <-chan struct{} { return t.ctx.Done() }

// Bind derives a context from parent that is additionally canceled when
// the token triggers. The returned stop function releases the watcher
// and must be called once the bound operation finishes.
func (t *Token) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := make(chan struct{})
	go func() {
		select {
		case <-t.ctx.Done():
			cancel()
		case <-ctx.Done():
		case <-stop:
		}
	}()
	return ctx, func() {
		close(stop)
		cancel()
	}
}
