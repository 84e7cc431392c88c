package reconcile

import (
	"context"
	"errors"
)

// ErrDeferred marks a Process error that leaves the record pending.
var ErrDeferred = errors.New("record deferred to next pass")

type deferredError struct{ err error }

func (d deferredError) Error() string   { return "deferred: " + d.err.Error() }
func (d deferredError) Unwrap() []error { return []error{ErrDeferred, d.err} }

// Defer wraps err so the engine skips the commit and keeps the record pending.
// Use it for local failures that happen before any remote call.
func Defer(err error) error {
	if err == nil {
		return nil
	}
	return deferredError{err: err}
}

// Adapter defines the domain-specific half of a reconciliation pass.
// The engine owns ordering, isolation and bookkeeping; the adapter knows how to
// load staged records, talk to the remote system and persist an outcome.
type Adapter interface {
	// Name returns the unique name of this adapter (e.g., "ecommerce").
	Name() string

	// LoadPending returns every record currently in StatusPending.
	// A failure here aborts the pass.
	LoadPending(ctx context.Context) ([]Record, error)

	// ExtractKey returns the stable key of a record, used for logs and outcomes.
	ExtractKey(record Record) string

	// Process resolves and pushes a single record to the remote system.
	// Remote failures are reported through the returned Outcome. A non-nil error
	// means the request could not even be built; the engine records it as
	// StatusError and moves on, unless the error wraps ErrDeferred (see Defer),
	// in which case nothing is committed.
	Process(ctx context.Context, record Record) (Outcome, error)

	// Commit persists the outcome on the record in a single write.
	// If it fails the record must remain pending.
	Commit(ctx context.Context, record Record, outcome Outcome) error
}

// Listener is notified after an outcome has been committed.
// Listener errors are logged and never change the record's status.
type Listener interface {
	OutcomeCommitted(ctx context.Context, adapter string, outcome Outcome) error
}

// Archiver stores a finished pass summary somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, summary *PassSummary) error
}
