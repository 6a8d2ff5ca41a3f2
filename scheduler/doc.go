// Package scheduler runs the per-group dispatch loops.
//
// Each rate-limit group gets at most one loop at a time, started when
// its queue transitions from empty-and-idle to non-empty and exiting
// once the queue drains. A loop peeks the head item without removing
// it, waits out the group's minimum inter-request interval, hands the
// request through the middleware chain to the sender, and only then
// removes the item, stamps the dispatch clock, and settles the caller's
// result. Peek-before-wait means an item purged by cancellation
// mid-wait is never dispatched, and the dispatch clock only advances on
// actual attempts.
//
// Loops for different groups run on independent goroutines; a slow or
// rate-limited group never stalls the others.
package scheduler
