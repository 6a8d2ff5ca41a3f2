package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/sendq"
)

func setupGate(t *testing.T, now time.Time) *RedisGate {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGate(client, WithNow(func() time.Time { return now }))
}

func TestRedisGate_AllowsUpToBudget(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	g := setupGate(t, now)
	rl := sendq.RateLimit{ID: "svc", MaxRPS: 3}

	for i := range 3 {
		ok, _, err := g.Allow(context.Background(), rl)
		if err != nil {
			t.Fatalf("unexpected error on attempt %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("attempt %d should be within budget", i)
		}
	}
}

func TestRedisGate_DeniesOverBudget(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	g := setupGate(t, now)
	rl := sendq.RateLimit{ID: "svc", MaxRPS: 2}

	for range 2 {
		if ok, _, err := g.Allow(context.Background(), rl); err != nil || !ok {
			t.Fatalf("expected allow within budget, ok=%v err=%v", ok, err)
		}
	}

	ok, retryAfter, err := g.Allow(context.Background(), rl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("third request in the window must be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Fatalf("retryAfter should point at the next window, got %v", retryAfter)
	}
}

func TestRedisGate_DeniedReservationIsReleased(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	g := setupGate(t, now)
	rl := sendq.RateLimit{ID: "svc", MaxRPS: 1}

	if ok, _, _ := g.Allow(context.Background(), rl); !ok {
		t.Fatal("first request should be allowed")
	}

	// Repeated denied probes must not inflate the counter: once the
	// window rolls over, the budget is fully available again.
	for range 5 {
		if ok, _, err := g.Allow(context.Background(), rl); err != nil || ok {
			t.Fatalf("expected deny, ok=%v err=%v", ok, err)
		}
	}

	g.now = func() time.Time { return now.Add(time.Second) }
	if ok, _, err := g.Allow(context.Background(), rl); err != nil || !ok {
		t.Fatalf("next window should allow again, ok=%v err=%v", ok, err)
	}
}

func TestRedisGate_GroupsAreIndependent(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	g := setupGate(t, now)

	a := sendq.RateLimit{ID: "svc-a", MaxRPS: 1}
	b := sendq.RateLimit{ID: "svc-b", MaxRPS: 1}

	if ok, _, _ := g.Allow(context.Background(), a); !ok {
		t.Fatal("group a should be allowed")
	}
	if ok, _, _ := g.Allow(context.Background(), b); !ok {
		t.Fatal("exhausting group a must not affect group b")
	}
}
