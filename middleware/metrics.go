package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sendq"
)

// meterName is the instrumentation scope name for sendq metrics.
const meterName = "github.com/xraph/sendq"

// Metrics returns middleware that records per-send metrics using the
// global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - sendq.send.duration (Float64Histogram): send time in seconds,
//     with attributes: group, priority, status ("ok" or "error")
//   - sendq.send.attempts (Int64Counter): total send attempts,
//     with attributes: group, priority, status ("ok" or "error")
func Metrics() Middleware {
	meter := otel.Meter(meterName)
	return MetricsWithMeter(meter)
}

// MetricsWithMeter returns metrics middleware using the provided meter.
// This variant allows injecting a specific MeterProvider for testing.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"sendq.send.duration",
		metric.WithDescription("Duration of a send attempt in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	attempts, aErr := meter.Int64Counter(
		"sendq.send.attempts",
		metric.WithDescription("Total number of send attempts"),
		metric.WithUnit("{attempt}"),
	)
	_ = aErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error) {
		start := time.Now()
		resp, err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		group := ""
		if req.RateLimit != nil {
			group = req.RateLimit.ID
		}

		attrs := metric.WithAttributes(
			attribute.String("group", group),
			attribute.String("priority", req.Priority.String()),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		attempts.Add(ctx, 1, attrs)

		return resp, err
	}
}
