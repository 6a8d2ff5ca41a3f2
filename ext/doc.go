// Package ext defines the extension system for sendq.
//
// Extensions are notified of request lifecycle events and can react to
// them — recording metrics, driving UI state, writing audit logs, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnRequestSettled(ctx context.Context, it *queue.Item, resp *sendq.Response, sendErr error, elapsed time.Duration) error {
//	    log.Printf("request %s settled in %s", it.Request.ID, elapsed)
//	    return nil
//	}
//
// # Request Lifecycle Hooks
//
//   - [RequestEnqueued] — request was accepted into its group queue
//   - [RequestDispatched] — the scheduler handed the request to the sender
//   - [RequestSettled] — the send finished (success or failure)
//   - [RequestCanceled] — the request was removed by cancellation before settling normally
//   - [Shutdown] — the manager is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
