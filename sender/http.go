// Package sender provides the HTTP transport used to dispatch queued
// requests. The scheduler hands it requests whose context is already
// bound to the cancellation token, so canceling a key aborts the
// in-flight call best-effort via the HTTP client's context handling.
package sender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/xraph/sendq"
)

// Compile-time interface check.
var _ sendq.Sender = (*HTTP)(nil)

// defaultMaxBodySize bounds response bodies read into memory.
const defaultMaxBodySize = 10 << 20 // 10 MiB

// HTTP sends requests over net/http. An optional process-wide token
// bucket caps the total outbound rate across all groups, protecting
// the shared transport independently of per-group budgets.
type HTTP struct {
	client      *http.Client
	throttle    *rate.Limiter
	maxBodySize int64
}

// HTTPOption configures an HTTP sender.
type HTTPOption func(*HTTP)

// WithMaxRPS caps the sender's total outbound request rate across all
// rate-limit groups. Zero (the default) disables the cap.
func WithMaxRPS(rps float64) HTTPOption {
	return func(h *HTTP) {
		if rps > 0 {
			h.throttle = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxBodySize bounds how many response bytes are read into memory.
func WithMaxBodySize(n int64) HTTPOption {
	return func(h *HTTP) { h.maxBodySize = n }
}

// NewHTTP creates an HTTP sender. A nil client uses http.DefaultClient.
func NewHTTP(client *http.Client, opts ...HTTPOption) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	h := &HTTP{
		client:      client,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send implements sendq.Sender.
func (h *HTTP) Send(ctx context.Context, req *sendq.Request) (*sendq.Response, error) {
	if h.throttle != nil {
		if err := h.throttle.Wait(ctx); err != nil {
			return nil, fmt.Errorf("sender: waiting for outbound slot: %w", err)
		}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("sender: building request %s: %w", req.ID.String(), err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sender: sending request %s: %w", req.ID.String(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, h.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("sender: reading response for request %s: %w", req.ID.String(), err)
	}

	return &sendq.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}
