package ext

import (
	"context"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/queue"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// RequestEnqueued is called after a request is inserted into its group
// queue.
type RequestEnqueued interface {
	OnRequestEnqueued(ctx context.Context, it *queue.Item) error
}

// RequestDispatched is called when the scheduler hands a request to the
// sender.
type RequestDispatched interface {
	OnRequestDispatched(ctx context.Context, it *queue.Item) error
}

// RequestSettled is called after a dispatched request settles, with the
// response or the send error and the elapsed send time.
type RequestSettled interface {
	OnRequestSettled(ctx context.Context, it *queue.Item, resp *sendq.Response, sendErr error, elapsed time.Duration) error
}

// RequestCanceled is called when a queued request is removed by
// cancellation before a normal settlement.
type RequestCanceled interface {
	OnRequestCanceled(ctx context.Context, it *queue.Item) error
}

// Shutdown is called when the manager is shutting down gracefully.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
