package sendq

import "time"

// Config holds configuration for the request manager.
type Config struct {
	// DefaultRateLimit applies to requests that carry no explicit rate
	// limit and match no resolver. A zero value (empty ID) disables the
	// fallback, making an unresolved request an enqueue error.
	DefaultRateLimit RateLimit

	// DefaultKey is the cancellation sub-key used when a request does
	// not specify one.
	DefaultKey string

	// ShutdownTimeout is the maximum time Close waits for in-flight
	// dispatches before canceling them.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRateLimit: RateLimit{ID: "default", MaxRPS: 1},
		DefaultKey:       "default",
		ShutdownTimeout:  30 * time.Second,
	}
}
