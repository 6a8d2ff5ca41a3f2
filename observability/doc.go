// Package observability provides a sendq extension that records
// request lifecycle metrics via OpenTelemetry.
//
// Register it with the manager to automatically track enqueue rates,
// dispatch counts, settlement outcomes, cancellations, and time spent
// queued:
//
//	m, err := engine.New(sender,
//	    engine.WithExtension(observability.NewMetricsExtension()),
//	)
package observability
