package sendq

import "time"

// RateLimit identifies a logical throttling bucket and its sustained
// request budget. All requests resolving to the same ID share one queue
// and one budget.
type RateLimit struct {
	// ID names the rate-limit group, typically per external service or
	// domain (e.g., "trakt", "tmdb").
	ID string `json:"id"`

	// MaxRPS is the maximum sustained requests per second for this
	// group. Must be positive.
	MaxRPS float64 `json:"max_rps"`
}

// Validate reports whether the rate limit is usable. A zero or negative
// MaxRPS would wedge the dispatch loop, so it is rejected at enqueue
// time rather than detected deep inside the scheduler.
func (r RateLimit) Validate() error {
	if r.ID == "" || r.MaxRPS <= 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// Interval returns the minimum spacing between consecutive dispatches
// for this group.
func (r RateLimit) Interval() time.Duration {
	return time.Duration(float64(time.Second) / r.MaxRPS)
}
