package sendq

import (
	"context"
	"net/http"
	"time"

	"github.com/xraph/sendq/id"
)

// Request describes a network request to be dispatched. The core does
// not interpret the payload fields beyond reading the rate-limit and
// priority hints; they are passed through verbatim to the Sender.
type Request struct {
	ID     id.RequestID `json:"id"`
	Method string       `json:"method"`
	URL    string       `json:"url"`
	Header http.Header  `json:"header,omitempty"`
	Body   []byte       `json:"body,omitempty"`

	// RateLimit pins the request to a specific group. When nil, the
	// manager consults its RateLimitResolver and then its configured
	// default.
	RateLimit *RateLimit `json:"rate_limit,omitempty"`

	// Priority determines dispatch ordering within the group.
	// Zero value is Normal.
	Priority Priority `json:"priority"`

	// Key is the cancellation sub-key within the enqueue scope.
	// Empty means the configured default key.
	Key string `json:"key,omitempty"`

	// Timeout bounds a single send attempt. Zero means no per-request
	// deadline beyond the caller's context.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// Response is the result of a dispatched request.
type Response struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body,omitempty"`
}

// Sender performs the actual network transport. The context passed to
// Send is canceled when the request's cancellation token triggers, so
// implementations should abort promptly on ctx.Done (best effort; an
// in-flight send is never forcibly recalled by the core).
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req *Request) (*Response, error)

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// RateLimitResolver maps a request without an explicit rate limit to
// its group, typically by matching the request URL against per-service
// host patterns. Returning false defers to the manager's default.
type RateLimitResolver interface {
	Resolve(req *Request) (RateLimit, bool)
}

// ResolverFunc adapts a function to the RateLimitResolver interface.
type ResolverFunc func(req *Request) (RateLimit, bool)

// Resolve implements RateLimitResolver.
func (f ResolverFunc) Resolve(req *Request) (RateLimit, bool) { return f(req) }
