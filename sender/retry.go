package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/backoff"
)

// Compile-time interface check.
var _ sendq.Sender = (*Retry)(nil)

// defaultMaxAttempts bounds total attempts per request (1 initial + 2 retries).
const defaultMaxAttempts = 3

// RetryPolicy decides whether an attempt's outcome warrants a retry.
type RetryPolicy func(resp *sendq.Response, err error) bool

// DefaultRetryPolicy retries transport errors, 429, and 5xx responses.
// Context cancellation is never retried: a canceled request stays
// canceled.
func DefaultRetryPolicy(resp *sendq.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// Retry decorates a Sender with bounded retries. The queue core never
// retries; wrapping the sender keeps retry policy at the transport
// boundary where it belongs, and each retry still honors the request's
// cancellation context.
type Retry struct {
	next        sendq.Sender
	strategy    backoff.Strategy
	policy      RetryPolicy
	maxAttempts int
	logger      *slog.Logger
}

// RetryOption configures a Retry sender.
type RetryOption func(*Retry)

// WithStrategy sets the delay strategy between attempts.
func WithStrategy(s backoff.Strategy) RetryOption {
	return func(r *Retry) { r.strategy = s }
}

// WithMaxAttempts sets the total attempt budget, including the first.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithPolicy replaces the default retry policy.
func WithPolicy(p RetryPolicy) RetryOption {
	return func(r *Retry) { r.policy = p }
}

// WithRetryLogger sets the logger retries are reported on.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *Retry) { r.logger = logger }
}

// NewRetry wraps next with retry behavior.
func NewRetry(next sendq.Sender, opts ...RetryOption) *Retry {
	r := &Retry{
		next:        next,
		strategy:    backoff.Default(),
		policy:      DefaultRetryPolicy,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send attempts the request up to the configured budget, sleeping the
// strategy's delay between attempts. The last outcome is returned
// as-is when the budget runs out.
func (r *Retry) Send(ctx context.Context, req *sendq.Request) (*sendq.Response, error) {
	var (
		resp *sendq.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = r.next.Send(ctx, req)
		if !r.policy(resp, err) || attempt >= r.maxAttempts {
			return resp, err
		}

		delay := r.strategy.Delay(attempt)
		r.logger.Debug("retrying request",
			slog.String("request_id", req.ID.String()),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}
