// Package sendq provides a per-resource, priority-ordered, rate-limited
// request dispatch queue with cooperative cancellation.
//
// Callers enqueue request descriptions; sendq decouples them from actual
// network issuance, enforcing a maximum request rate per rate-limit group,
// priority ordering within each group, and bulk cancellation of queued
// requests by an opaque scope (for example a UI tab).
//
// # Quick Start
//
//	m, err := engine.New(sender.NewHTTP(nil),
//	    engine.WithLogger(logger),
//	)
//	resp, err := m.Do(ctx, &sendq.Request{
//	    Method:    "GET",
//	    URL:       "https://api.example.com/items",
//	    RateLimit: &sendq.RateLimit{ID: "example", MaxRPS: 2},
//	}, "tab-7")
//
// # Architecture
//
// The root package defines the shared data model (Request, Response,
// RateLimit, Priority, Sender). Each subsystem lives in its own package:
// queue (ordered per-group queues), cancel (one-shot tokens), scheduler
// (per-group dispatch loops), event (in-process notification bus),
// middleware (composable send wrappers), ext (lifecycle hooks), and
// engine (the Manager façade that wires everything together).
package sendq
