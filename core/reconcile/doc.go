// Package reconcile drives the status lifecycle of staged records against a
// remote system.
//
// # Status Lifecycle
//
// Every staged record carries a Status persisted as a single-letter code:
//
//	N (new) -> P (pending) -> Y (updated) | S (skipped) | E (error) | Z (ambiguous)
//	N (new) -> S (skipped)
//	P (pending) -> X (excluded)
//
// Y, S, E, Z and X are terminal for the engine. Records in E or Z are only
// replayed after manual intervention. The allowed moves live in a single table
// (see CanTransition) so that stores and adapters cannot drift from it.
//
// # Engine
//
// The Engine loads every pending record through an Adapter and processes them
// one at a time. Each record is isolated: a remote failure, a malformed
// response or even a panic turns into a terminal status for that record only.
// The outcome is committed in one write. When the commit fails the record
// keeps status P and is retried on the next pass.
//
// # Usage
//
//	engine := reconcile.NewEngine(adapter, logger,
//	    reconcile.WithMetrics(reconcile.NewMetrics(prometheus.DefaultRegisterer)),
//	    reconcile.WithArchiver(reconcile.NewReportArchiver(client, bucket, "reports")),
//	)
//	summary, err := engine.RunPass(ctx)
package reconcile
