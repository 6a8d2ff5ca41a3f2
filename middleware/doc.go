// Package middleware provides composable middleware for request dispatch.
//
// A [Middleware] is a function that wraps the send handler. Middleware
// are composed into a chain using [Chain] and applied around every
// dispatch. They are applied right-to-left: the first middleware in the
// slice is the outermost wrapper.
//
//	// logging → recover → sender
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs request id, url, group, duration, and outcome
//   - [Recover] — catches panics in the send path and converts them to errors
//   - [Timeout] — enforces the request's per-send deadline
//   - [Tracing] — wraps the send in an OpenTelemetry span
//   - [Metrics] — records per-send duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, req *sendq.Request, next middleware.Handler) (*sendq.Response, error) {
//	        // pre-processing
//	        resp, err := next(ctx)
//	        // post-processing
//	        return resp, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
