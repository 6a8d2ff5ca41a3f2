// Package queue implements the per-group request queues at the heart of
// sendq.
//
// A Queue holds items for one rate-limit group, ordered by priority
// descending with FIFO tie-break among equal priorities. The Store maps
// group ids to queues, creating them lazily on first use; queues persist
// for the process lifetime since the number of distinct rate-limit
// groups is small and bounded.
//
// Each Item carries a single-use settlement handle: exactly one of a
// response or an error is delivered to the caller, exactly once, across
// the success, failure, and cancellation paths. Canceled items removed
// by a purge are settled with sendq.ErrCanceled so callers are never
// left pending.
//
// All Queue and Store state is mutex-protected; the scheduler, the
// manager's insert path, and cancellation purges may run concurrently.
package queue
