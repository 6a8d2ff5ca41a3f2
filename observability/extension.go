package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/ext"
	"github.com/xraph/sendq/queue"
)

// meterName is the instrumentation scope name for sendq observability.
const meterName = "github.com/xraph/sendq/observability"

// Compile-time interface checks.
var (
	_ ext.Extension         = (*MetricsExtension)(nil)
	_ ext.RequestEnqueued   = (*MetricsExtension)(nil)
	_ ext.RequestDispatched = (*MetricsExtension)(nil)
	_ ext.RequestSettled    = (*MetricsExtension)(nil)
	_ ext.RequestCanceled   = (*MetricsExtension)(nil)
)

// MetricsExtension records request lifecycle metrics. Register it as a
// sendq extension to track enqueue rates, dispatch counts, settlement
// outcomes, cancellations, and queue latency per rate-limit group.
type MetricsExtension struct {
	enqueued   metric.Int64Counter
	dispatched metric.Int64Counter
	settled    metric.Int64Counter
	canceled   metric.Int64Counter
	queueTime  metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured the instruments are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter, for injecting a specific MeterProvider in tests.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// The OTel API guarantees noop instruments on error, so the
	// extension degrades gracefully rather than failing construction.
	m.enqueued, _ = meter.Int64Counter(
		"sendq.request.enqueued",
		metric.WithDescription("Total requests accepted into a queue"),
		metric.WithUnit("{request}"),
	)
	m.dispatched, _ = meter.Int64Counter(
		"sendq.request.dispatched",
		metric.WithDescription("Total requests handed to the sender"),
		metric.WithUnit("{request}"),
	)
	m.settled, _ = meter.Int64Counter(
		"sendq.request.settled",
		metric.WithDescription("Total requests settled with a response or send error"),
		metric.WithUnit("{request}"),
	)
	m.canceled, _ = meter.Int64Counter(
		"sendq.request.canceled",
		metric.WithDescription("Total requests removed by cancellation"),
		metric.WithUnit("{request}"),
	)
	m.queueTime, _ = meter.Float64Histogram(
		"sendq.request.queue_time",
		metric.WithDescription("Time from enqueue to dispatch in seconds"),
		metric.WithUnit("s"),
	)

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func groupAttrs(it *queue.Item) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("group", it.RateLimit.ID),
		attribute.String("priority", it.Priority.String()),
	)
}

// OnRequestEnqueued implements ext.RequestEnqueued.
func (m *MetricsExtension) OnRequestEnqueued(ctx context.Context, it *queue.Item) error {
	m.enqueued.Add(ctx, 1, groupAttrs(it))
	return nil
}

// OnRequestDispatched implements ext.RequestDispatched.
func (m *MetricsExtension) OnRequestDispatched(ctx context.Context, it *queue.Item) error {
	m.dispatched.Add(ctx, 1, groupAttrs(it))
	m.queueTime.Record(ctx, time.Since(it.EnqueuedAt).Seconds(), groupAttrs(it))
	return nil
}

// OnRequestSettled implements ext.RequestSettled.
func (m *MetricsExtension) OnRequestSettled(ctx context.Context, it *queue.Item, _ *sendq.Response, sendErr error, _ time.Duration) error {
	status := "ok"
	if sendErr != nil {
		status = "error"
	}
	m.settled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("group", it.RateLimit.ID),
		attribute.String("priority", it.Priority.String()),
		attribute.String("status", status),
	))
	return nil
}

// OnRequestCanceled implements ext.RequestCanceled.
func (m *MetricsExtension) OnRequestCanceled(ctx context.Context, it *queue.Item) error {
	m.canceled.Add(ctx, 1, groupAttrs(it))
	return nil
}
