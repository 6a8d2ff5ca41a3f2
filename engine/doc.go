// Package engine wires all sendq subsystems together. It creates the
// cancellation registry, queue store, extension registry, middleware
// chain, and scheduler, and exposes the Manager façade applications
// talk to: Enqueue, Do, CancelByKey, CancelByScope, SetRateLimit.
//
// This package exists to break the import cycle: the root sendq package
// defines Request and RateLimit (imported by queue, scheduler, etc.)
// and so cannot import those packages back. The engine package sits
// above all subsystem packages and below the application layer.
package engine
