package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/sendq"
)

// Logging returns middleware that logs dispatch start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error) {
		logger.Debug("request dispatching",
			slog.String("request_id", req.ID.String()),
			slog.String("method", req.Method),
			slog.String("url", req.URL),
		)

		start := time.Now()
		resp, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("request failed",
				slog.String("request_id", req.ID.String()),
				slog.String("url", req.URL),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("request completed",
				slog.String("request_id", req.ID.String()),
				slog.String("url", req.URL),
				slog.Int("status", resp.StatusCode),
				slog.Duration("elapsed", elapsed),
			)
		}

		return resp, err
	}
}
