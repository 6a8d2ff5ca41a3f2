package limiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/sendq"
)

// Compile-time interface check.
var _ Gate = (*RedisGate)(nil)

// window is the fixed counting window. One second keeps the window
// budget equal to ceil(MaxRPS) without unit conversion.
const window = time.Second

// RedisGate is a fixed-window counter gate over redis. All processes
// sharing the same redis and key prefix share one per-group budget.
type RedisGate struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// RedisGateOption configures a RedisGate.
type RedisGateOption func(*RedisGate)

// WithKeyPrefix sets the redis key namespace. Defaults to "sendq:rl".
func WithKeyPrefix(prefix string) RedisGateOption {
	return func(g *RedisGate) { g.prefix = prefix }
}

// WithNow injects the clock, for tests.
func WithNow(now func() time.Time) RedisGateOption {
	return func(g *RedisGate) { g.now = now }
}

// NewRedisGate creates a gate backed by the given redis client.
func NewRedisGate(client *redis.Client, opts ...RedisGateOption) *RedisGate {
	g := &RedisGate{
		client: client,
		prefix: "sendq:rl",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow increments the group's window counter and compares it against
// the window budget. A denied reservation is undone so a waiting
// process does not consume budget while deferred.
func (g *RedisGate) Allow(ctx context.Context, rl sendq.RateLimit) (bool, time.Duration, error) {
	windowStart := g.now().Truncate(window)
	key := fmt.Sprintf("%s:%s:%d", g.prefix, rl.ID, windowStart.Unix())
	budget := int64(math.Ceil(rl.MaxRPS * window.Seconds()))

	// Pipeline to save a round trip; the counter key expires shortly
	// after its window closes.
	pipe := g.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*window)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, fmt.Errorf("limiter: redis pipeline for group %q: %w", rl.ID, err)
	}

	count, err := incrCmd.Result()
	if err != nil {
		return false, 0, fmt.Errorf("limiter: incrementing window for group %q: %w", rl.ID, err)
	}

	if count > budget {
		if decrErr := g.client.Decr(ctx, key).Err(); decrErr != nil {
			return false, 0, fmt.Errorf("limiter: releasing denied reservation for group %q: %w", rl.ID, decrErr)
		}
		retryAfter := windowStart.Add(window).Sub(g.now())
		if retryAfter <= 0 {
			retryAfter = time.Millisecond
		}
		return false, retryAfter, nil
	}

	return true, 0, nil
}
