package middleware

import (
	"context"

	"github.com/xraph/sendq"
)

// Handler is the terminal function that performs the actual send.
type Handler func(ctx context.Context) (*sendq.Response, error)

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the request being dispatched, and the next handler
// to call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → sender
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (*sendq.Response, error) {
				return mw(ctx, req, prev)
			}
		}
		return h(ctx)
	}
}
