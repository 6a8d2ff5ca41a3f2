package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/queue"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type requestEnqueuedEntry struct {
	name string
	hook RequestEnqueued
}

type requestDispatchedEntry struct {
	name string
	hook RequestDispatched
}

type requestSettledEntry struct {
	name string
	hook RequestSettled
}

type requestCanceledEntry struct {
	name string
	hook RequestCanceled
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	requestEnqueued   []requestEnqueuedEntry
	requestDispatched []requestDispatchedEntry
	requestSettled    []requestSettledEntry
	requestCanceled   []requestCanceledEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(RequestEnqueued); ok {
		r.requestEnqueued = append(r.requestEnqueued, requestEnqueuedEntry{name, h})
	}
	if h, ok := e.(RequestDispatched); ok {
		r.requestDispatched = append(r.requestDispatched, requestDispatchedEntry{name, h})
	}
	if h, ok := e.(RequestSettled); ok {
		r.requestSettled = append(r.requestSettled, requestSettledEntry{name, h})
	}
	if h, ok := e.(RequestCanceled); ok {
		r.requestCanceled = append(r.requestCanceled, requestCanceledEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitRequestEnqueued notifies all extensions that implement RequestEnqueued.
func (r *Registry) EmitRequestEnqueued(ctx context.Context, it *queue.Item) {
	for _, e := range r.requestEnqueued {
		if err := e.hook.OnRequestEnqueued(ctx, it); err != nil {
			r.logHookError("OnRequestEnqueued", e.name, err)
		}
	}
}

// EmitRequestDispatched notifies all extensions that implement RequestDispatched.
func (r *Registry) EmitRequestDispatched(ctx context.Context, it *queue.Item) {
	for _, e := range r.requestDispatched {
		if err := e.hook.OnRequestDispatched(ctx, it); err != nil {
			r.logHookError("OnRequestDispatched", e.name, err)
		}
	}
}

// EmitRequestSettled notifies all extensions that implement RequestSettled.
func (r *Registry) EmitRequestSettled(ctx context.Context, it *queue.Item, resp *sendq.Response, sendErr error, elapsed time.Duration) {
	for _, e := range r.requestSettled {
		if err := e.hook.OnRequestSettled(ctx, it, resp, sendErr, elapsed); err != nil {
			r.logHookError("OnRequestSettled", e.name, err)
		}
	}
}

// EmitRequestCanceled notifies all extensions that implement RequestCanceled.
func (r *Registry) EmitRequestCanceled(ctx context.Context, it *queue.Item) {
	for _, e := range r.requestCanceled {
		if err := e.hook.OnRequestCanceled(ctx, it); err != nil {
			r.logHookError("OnRequestCanceled", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block dispatch.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
