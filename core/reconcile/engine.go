package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Engine drives reconciliation passes for a single adapter.
// Records are processed sequentially; one record's outcome never blocks another.
type Engine struct {
	adapter   Adapter
	logger    *zap.Logger
	metrics   *Metrics
	listeners []Listener
	archiver  Archiver
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records pass and record counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithListener adds a listener notified of every committed outcome.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithArchiver stores each pass summary after the pass finishes.
func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archiver = a }
}

// WithTracer overrides the tracer (defaults to the global provider).
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// NewEngine creates an engine for the given adapter.
func NewEngine(adapter Adapter, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		adapter: adapter,
		logger:  logger.With(zap.String("adapter", adapter.Name())),
		tracer:  otel.Tracer("ecomm-sync/reconcile"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunPass loads all pending records and processes them.
// Only a failure to load the record set aborts the pass.
func (e *Engine) RunPass(ctx context.Context) (*PassSummary, error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.pass",
		trace.WithAttributes(attribute.String("adapter", e.adapter.Name())))
	defer span.End()

	records, err := e.adapter.LoadPending(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load pending")
		return nil, fmt.Errorf("failed to load pending records: %w", err)
	}

	summary := e.ProcessBatch(ctx, records)
	span.SetAttributes(
		attribute.Int("records.total", summary.Total),
		attribute.Int("records.updated", summary.Updated),
		attribute.Int("records.errors", summary.Errors),
	)

	if e.archiver != nil {
		if err := e.archiver.Archive(ctx, summary); err != nil {
			e.logger.Warn("Failed to archive pass summary", zap.Error(err))
		}
	}

	return summary, nil
}

// ProcessBatch processes an already loaded batch of pending records.
func (e *Engine) ProcessBatch(ctx context.Context, records []Record) *PassSummary {
	summary := &PassSummary{
		Adapter:   e.adapter.Name(),
		StartedAt: e.now(),
		Total:     len(records),
		Results:   make([]RecordResult, 0, len(records)),
	}

	e.logger.Info("Starting reconciliation pass", zap.Int("pending", len(records)))

	for _, record := range records {
		summary.Results = append(summary.Results, e.processRecord(ctx, record, summary))
	}

	summary.FinishedAt = e.now()
	summary.Duration = summary.FinishedAt.Sub(summary.StartedAt)

	e.metrics.observePass(summary)

	e.logger.Info("Reconciliation pass finished",
		zap.Int("total", summary.Total),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Int("ambiguous", summary.Ambiguous),
		zap.Int("commit_failures", summary.CommitFailures),
		zap.Int("deferred", summary.Deferred),
		zap.Duration("duration", summary.Duration),
	)

	return summary
}

func (e *Engine) processRecord(ctx context.Context, record Record, summary *PassSummary) RecordResult {
	key := e.adapter.ExtractKey(record)
	l := e.logger.With(zap.String("key", key))

	ctx, span := e.tracer.Start(ctx, "reconcile.record", trace.WithAttributes(attribute.String("key", key)))
	defer span.End()

	outcome, deferErr := e.resolve(ctx, record, key, l)
	if deferErr != nil {
		l.Warn("Record deferred, left pending", zap.Error(deferErr))
		span.SetAttributes(attribute.String("status", StatusPending.String()))
		summary.Deferred++
		return RecordResult{Key: key, Status: StatusPending, Error: deferErr.Error()}
	}

	result := RecordResult{
		Key:      key,
		Status:   outcome.Status,
		PostType: outcome.PostType,
		RemoteID: outcome.RemoteID,
	}
	span.SetAttributes(attribute.String("status", outcome.Status.String()))

	if err := e.adapter.Commit(ctx, record, outcome); err != nil {
		// The record stays pending; the next pass picks it up again.
		l.Error("Failed to persist outcome, record left pending",
			zap.String("status", outcome.Status.String()),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		summary.CommitFailures++
		e.metrics.observeCommitFailure()
		result.Status = StatusPending
		result.Error = err.Error()
		return result
	}

	result.Committed = true
	summary.count(outcome.Status)
	e.metrics.observeRecord(e.adapter.Name(), outcome.Status)

	l.Info("Record reconciled",
		zap.String("status", outcome.Status.String()),
		zap.String("post_type", string(outcome.PostType)),
		zap.String("remote_id", outcome.RemoteID),
	)

	for _, listener := range e.listeners {
		if err := listener.OutcomeCommitted(ctx, e.adapter.Name(), outcome); err != nil {
			l.Warn("Outcome listener failed", zap.Error(err))
		}
	}

	return result
}

// resolve runs the adapter for one record and normalizes whatever it returns
// into one of PassOutcomes. A non-nil error means the adapter deferred the
// record and nothing must be committed.
func (e *Engine) resolve(ctx context.Context, record Record, key string, l *zap.Logger) (outcome Outcome, deferred error) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("Record processing panicked", zap.Any("panic", r))
			outcome = Outcome{Key: key, Status: StatusError, Response: fmt.Sprintf("panic while processing record: %v", r)}
			deferred = nil
		}
	}()

	outcome, err := e.adapter.Process(ctx, record)
	if errors.Is(err, ErrDeferred) {
		return Outcome{Key: key, Status: StatusPending}, err
	}
	if err != nil {
		l.Error("Failed to build request for record", zap.Error(err))
		return Outcome{Key: key, Status: StatusError, PostType: outcome.PostType, Response: err.Error()}, nil
	}

	outcome.Key = key
	if !IsPassOutcome(outcome.Status) {
		l.Error("Adapter returned an unusable status", zap.String("status", outcome.Status.String()))
		return Outcome{
			Key:      key,
			Status:   StatusError,
			PostType: outcome.PostType,
			Response: fmt.Sprintf("adapter returned status %s: %s", outcome.Status, outcome.Response),
		}, nil
	}

	return outcome, nil
}
