// Package event provides the in-process notification bus sendq
// subscribes to for cancellation and option-change signals, and that
// embedding applications publish into (e.g., from UI or extension
// messaging glue).
package event

import "time"

// Type classifies a notification.
type Type string

const (
	// TypeCancelRequests asks the manager to cancel the requests
	// registered under Scope and Key.
	TypeCancelRequests Type = "cancel.requests"

	// TypeScopeEnded signals that a scope (e.g., a UI tab) went away;
	// the manager cancels everything enqueued under it.
	TypeScopeEnded Type = "scope.ended"

	// TypeOptionChanged signals that a stored option changed. The
	// manager consumes rate-limit options (Option = group id, Value =
	// new max RPS) and ignores the rest.
	TypeOptionChanged Type = "option.changed"
)

// Notification is one message on the bus.
type Notification struct {
	Type   Type      `json:"type"`
	Scope  string    `json:"scope,omitempty"`
	Key    string    `json:"key,omitempty"`
	Option string    `json:"option,omitempty"`
	Value  float64   `json:"value,omitempty"`
	Time   time.Time `json:"time"`
}
