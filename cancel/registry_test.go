package cancel

import (
	"context"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Token basics
// ---------------------------------------------------------------------------

func TestToken_TriggerIdempotent(t *testing.T) {
	tok := newToken("7/default")

	if tok.Triggered() {
		t.Fatal("fresh token should not be triggered")
	}

	tok.Trigger()
	if !tok.Triggered() {
		t.Fatal("token should be triggered after Trigger")
	}

	// Second trigger is a no-op, not a panic.
	tok.Trigger()
	if !tok.Triggered() {
		t.Fatal("token should stay triggered")
	}
}

func TestToken_DoneChannel(t *testing.T) {
	tok := newToken("7/default")

	select {
	case <-tok.Done():
		t.Fatal("Done should not be closed before Trigger")
	default:
	}

	tok.Trigger()

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Trigger")
	}
}

func TestToken_Bind(t *testing.T) {
	tok := newToken("7/default")

	ctx, stop := tok.Bind(context.Background())
	defer stop()

	if ctx.Err() != nil {
		t.Fatal("bound context should start live")
	}

	tok.Trigger()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context should cancel when the token triggers")
	}
}

func TestToken_BindStop_ReleasesWatcher(t *testing.T) {
	tok := newToken("7/default")

	ctx, stop := tok.Bind(context.Background())
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop should cancel the bound context")
	}

	// Triggering afterwards must not panic or block.
	tok.Trigger()
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_GetOrCreate_ReturnsSameToken(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("7/default")
	b := r.GetOrCreate("7/default")
	if a != b {
		t.Fatal("expected the same live token for the same key")
	}
}

func TestRegistry_Trigger_RemovesToken(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("7/default")
	if !r.Trigger("7/default") {
		t.Fatal("expected Trigger to fire the live token")
	}
	if !a.Triggered() {
		t.Fatal("expected the token to be triggered")
	}

	// A fresh token is created on the next use of the key.
	b := r.GetOrCreate("7/default")
	if a == b {
		t.Fatal("expected a fresh token after Trigger")
	}
	if b.Triggered() {
		t.Fatal("fresh token should not be triggered")
	}
}

func TestRegistry_Trigger_MissingKeyIsNoop(t *testing.T) {
	r := NewRegistry()

	if r.Trigger("no-such-key") {
		t.Fatal("expected Trigger on a missing key to report false")
	}
	// Double cancel after a real trigger is equally silent.
	r.GetOrCreate("7/default")
	r.Trigger("7/default")
	if r.Trigger("7/default") {
		t.Fatal("expected double Trigger to be a no-op")
	}
}

func TestRegistry_TriggerPrefix(t *testing.T) {
	r := NewRegistry()

	t7a := r.GetOrCreate("7/default")
	t7b := r.GetOrCreate("7/sync")
	t9 := r.GetOrCreate("9/default")

	n := r.TriggerPrefix("7/")
	if n != 2 {
		t.Fatalf("expected 2 tokens triggered, got %d", n)
	}
	if !t7a.Triggered() || !t7b.Triggered() {
		t.Fatal("expected all tab-7 tokens to be triggered")
	}
	if t9.Triggered() {
		t.Fatal("tab-9 token must not be triggered")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live token left, got %d", r.Len())
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.GetOrCreate("7/default")
		}()
		go func() {
			defer wg.Done()
			r.Trigger("7/default")
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, at most one live token remains.
	if r.Len() > 1 {
		t.Fatalf("expected at most 1 live token, got %d", r.Len())
	}
}
