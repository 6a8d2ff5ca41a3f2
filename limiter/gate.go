// Package limiter provides the shared rate gate consulted by the
// scheduler after a group's local inter-request interval has elapsed.
//
// The local interval already bounds the sustained rate of one process;
// a Gate extends the same group budget across processes. The redis
// implementation uses a fixed one-second window counter so several
// sendq instances sharing a redis can share one MaxRPS budget.
package limiter

import (
	"context"
	"time"

	"github.com/xraph/sendq"
)

// Gate grants or defers dispatch for a rate-limit group. Allow reports
// whether a dispatch may proceed now; when it may not, retryAfter is the
// suggested wait before asking again.
type Gate interface {
	Allow(ctx context.Context, rl sendq.RateLimit) (ok bool, retryAfter time.Duration, err error)
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, rl sendq.RateLimit) (bool, time.Duration, error)

// Allow implements Gate.
func (f GateFunc) Allow(ctx context.Context, rl sendq.RateLimit) (bool, time.Duration, error) {
	return f(ctx, rl)
}
