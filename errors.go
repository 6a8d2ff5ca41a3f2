package sendq

import "errors"

var (
	// ErrCanceled is the settlement for a request removed from its queue
	// by cancellation before (or while) it was dispatched.
	ErrCanceled = errors.New("sendq: request canceled")

	// ErrClosed is returned by Enqueue after the manager has been closed,
	// and is the settlement for requests still queued at close time.
	ErrClosed = errors.New("sendq: manager closed")

	// ErrInvalidRateLimit is returned at enqueue time when a request
	// resolves to a rate limit with a non-positive MaxRPS or an empty
	// group id.
	ErrInvalidRateLimit = errors.New("sendq: rate limit must have a group id and positive max rps")

	// ErrNoSender is returned by engine.New when no Sender is configured.
	ErrNoSender = errors.New("sendq: no sender configured")

	// ErrNoRateLimit is returned at enqueue time when a request carries
	// no rate limit, no resolver matches it, and no default is configured.
	ErrNoRateLimit = errors.New("sendq: no rate limit resolved for request")
)
