package sender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/xraph/sendq"
	"github.com/xraph/sendq/backoff"
	"github.com/xraph/sendq/id"
)

type flakySender struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	status   int
}

func (s *flakySender) Send(ctx context.Context, req *sendq.Request) (*sendq.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		if s.err != nil {
			return nil, s.err
		}
		return &sendq.Response{StatusCode: s.status}, nil
	}
	return &sendq.Response{StatusCode: 200}, nil
}

func (s *flakySender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func retryTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() *sendq.Request {
	return &sendq.Request{ID: id.NewRequestID(), Method: "GET", URL: "/x"}
}

func TestRetryRecoversFromTransportError(t *testing.T) {
	inner := &flakySender{failures: 2, err: errors.New("connection reset")}
	r := NewRetry(inner,
		WithStrategy(backoff.NewConstant(time.Millisecond)),
		WithRetryLogger(retryTestLogger()),
	)

	resp, err := r.Send(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if inner.callCount() != 3 {
		t.Fatalf("attempts = %d, want 3", inner.callCount())
	}
}

func TestRetryRetries5xx(t *testing.T) {
	inner := &flakySender{failures: 1, status: http.StatusBadGateway}
	r := NewRetry(inner,
		WithStrategy(backoff.NewConstant(time.Millisecond)),
		WithRetryLogger(retryTestLogger()),
	)

	resp, err := r.Send(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d after retry", resp.StatusCode)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	sendErr := errors.New("connection refused")
	inner := &flakySender{failures: 100, err: sendErr}
	r := NewRetry(inner,
		WithStrategy(backoff.NewConstant(time.Millisecond)),
		WithMaxAttempts(4),
		WithRetryLogger(retryTestLogger()),
	)

	if _, err := r.Send(context.Background(), testRequest()); !errors.Is(err, sendErr) {
		t.Fatalf("got %v, want last sender error", err)
	}
	if inner.callCount() != 4 {
		t.Fatalf("attempts = %d, want 4", inner.callCount())
	}
}

func TestRetryNeverRetriesCancellation(t *testing.T) {
	inner := &flakySender{failures: 100, err: context.Canceled}
	r := NewRetry(inner,
		WithStrategy(backoff.NewConstant(time.Millisecond)),
		WithRetryLogger(retryTestLogger()),
	)

	if _, err := r.Send(context.Background(), testRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if inner.callCount() != 1 {
		t.Fatalf("attempts = %d, canceled request must not retry", inner.callCount())
	}
}

func TestRetryAbortsDuringBackoff(t *testing.T) {
	inner := &flakySender{failures: 100, err: errors.New("down")}
	r := NewRetry(inner,
		WithStrategy(backoff.NewConstant(10*time.Second)),
		WithRetryLogger(retryTestLogger()),
	)

	ctx, cancelFn := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancelFn()
	}()

	start := time.Now()
	if _, err := r.Send(ctx, testRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Send blocked %v through cancellation", elapsed)
	}
}

func TestRetrySuccessNeedsNoRetry(t *testing.T) {
	inner := &flakySender{}
	r := NewRetry(inner, WithRetryLogger(retryTestLogger()))

	if _, err := r.Send(context.Background(), testRequest()); err != nil {
		t.Fatal(err)
	}
	if inner.callCount() != 1 {
		t.Fatalf("attempts = %d, want 1", inner.callCount())
	}
}
