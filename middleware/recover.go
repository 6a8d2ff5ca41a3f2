package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/sendq"
)

// Recover returns middleware that recovers from panics in the send path.
// Panics are converted to errors and logged with a stack trace, so one
// misbehaving sender cannot take down the group's dispatch loop.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req *sendq.Request, next Handler) (resp *sendq.Response, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("sender panicked",
					slog.String("request_id", req.ID.String()),
					slog.String("url", req.URL),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				resp = nil
				retErr = fmt.Errorf("panic sending request %s: %v", req.ID.String(), r)
			}
		}()
		return next(ctx)
	}
}
