package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/sendq"
)

// Timeout returns middleware that enforces a per-request send deadline.
// If the request has a non-zero Timeout, a context.WithTimeout wraps the
// send. When the deadline is exceeded the context is canceled and the
// sender should return context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error) {
		if req.Timeout > 0 {
			logger.Debug("request timeout set",
				slog.String("request_id", req.ID.String()),
				slog.Duration("timeout", req.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, req.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
