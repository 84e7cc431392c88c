package ecommerce

import (
	"context"

	"ecomm-sync/core/reconcile"

	"go.uber.org/zap"
)

// maxListLimit caps the number of records returned by a listing.
const maxListLimit = 500

// Service exposes staged record status to the status server.
type Service struct {
	store  *Store
	logger *zap.Logger
}

// NewService creates a new record service.
func NewService(store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Record returns one staged record.
func (s *Service) Record(ctx context.Context, transactionID string) (*StagedRecord, error) {
	return s.store.Get(ctx, transactionID)
}

// Records lists records in status, capped at maxListLimit.
func (s *Service) Records(ctx context.Context, status reconcile.Status, limit int) ([]StagedRecord, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListByStatus(ctx, status, limit)
}

// Summary returns the number of records per status name.
func (s *Service) Summary(ctx context.Context) (map[string]int64, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[status.String()] = n
	}
	return out, nil
}
