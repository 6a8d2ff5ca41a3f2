package sendq

// Priority determines dispatch ordering within a rate-limit group.
// Higher values are dispatched first; equal priorities dispatch in
// insertion order. The zero value is Normal, so an unset priority
// defaults to normal handling.
type Priority int

const (
	// Low priority requests dispatch after everything else.
	Low Priority = -1
	// Normal is the default priority.
	Normal Priority = 0
	// High priority requests jump ahead of queued normal and low work.
	High Priority = 1
)

// String returns a human-readable priority name for logging.
func (p Priority) String() string {
	switch {
	case p >= High:
		return "high"
	case p <= Low:
		return "low"
	default:
		return "normal"
	}
}
