package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/sendq"
)

// tracerName is the instrumentation scope name for sendq tracing.
const tracerName = "github.com/xraph/sendq"

// Tracing returns middleware that wraps the send in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: sendq.request.id, sendq.request.method,
// sendq.request.url, sendq.group, sendq.priority. On error, the span
// status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, req *sendq.Request, next Handler) (*sendq.Response, error) {
		group := ""
		if req.RateLimit != nil {
			group = req.RateLimit.ID
		}
		ctx, span := tracer.Start(ctx, "sendq.request.send",
			trace.WithAttributes(
				attribute.String("sendq.request.id", req.ID.String()),
				attribute.String("sendq.request.method", req.Method),
				attribute.String("sendq.request.url", req.URL),
				attribute.String("sendq.group", group),
				attribute.String("sendq.priority", req.Priority.String()),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		resp, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("sendq.response.status", resp.StatusCode))
			span.SetStatus(codes.Ok, "")
		}

		return resp, err
	}
}
