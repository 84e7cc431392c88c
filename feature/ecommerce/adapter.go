package ecommerce

import (
	"context"
	"fmt"
	"time"

	"ecomm-sync/core/crm"
	"ecomm-sync/core/logger"
	"ecomm-sync/core/reconcile"

	"go.uber.org/zap"
)

// Adapter implements reconcile.Adapter for staged e-commerce orders.
type Adapter struct {
	store        *Store
	customers    *CustomerResolver
	orders       *OrderResolver
	contacts     *ContactChecker
	connectionID string
	logger       *zap.Logger
	now          func() time.Time
}

// NewAdapter wires the resolvers for one CRM connection. The contact check
// only runs when cfg.RequireActiveList is set.
func NewAdapter(store *Store, client crm.Client, connectionID string, cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Adapter{
		store:        store,
		customers:    NewCustomerResolver(client, log),
		orders:       NewOrderResolver(client, cfg.OrderSource, cfg.Currency, log),
		connectionID: connectionID,
		logger:       log,
		now:          time.Now,
	}
	if cfg.RequireActiveList {
		a.contacts = NewContactChecker(client, cfg.ContactCacheTTL)
	}
	return a
}

// Name returns the unique name of this adapter.
func (a *Adapter) Name() string {
	return "ecommerce"
}

// LoadPending implements reconcile.Adapter.
func (a *Adapter) LoadPending(ctx context.Context) ([]reconcile.Record, error) {
	records, err := a.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Record, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

// ExtractKey implements reconcile.Adapter.
func (a *Adapter) ExtractKey(record reconcile.Record) string {
	return record.(*StagedRecord).TransactionID
}

// Process implements reconcile.Adapter. It checks eligibility, resolves the
// customer, checks for an existing order and then creates or updates it.
// Every remote failure becomes an Error outcome carrying the response text.
func (a *Adapter) Process(ctx context.Context, record reconcile.Record) (reconcile.Outcome, error) {
	rec := record.(*StagedRecord)
	l := logger.WithRecord(a.logger, rec.TransactionID, rec.OrderID)

	if err := rec.Validate(); err != nil {
		return reconcile.Outcome{}, err
	}

	items, err := a.store.LineItems(ctx, rec.TransactionID, rec.OrderID)
	if err != nil {
		l.Warn("Failed to read staged line items, record left pending", zap.Error(err))
		return reconcile.Outcome{}, reconcile.Defer(err)
	}

	if a.contacts != nil {
		eligible, err := a.contacts.Eligible(ctx, rec.Email)
		if err != nil {
			l.Warn("Contact lookup failed", zap.Error(err))
			return failed(err), nil
		}
		if !eligible {
			l.Info("Contact is not on an active list, skipping")
			return reconcile.Outcome{
				Status:   reconcile.StatusSkipped,
				Response: fmt.Sprintf("contact %s is not subscribed to an active list", rec.Email),
			}, nil
		}
	}

	customerID, err := a.customers.Resolve(ctx, a.connectionID, rec.Email, rec.PatronAccountID)
	if err != nil {
		l.Warn("Customer resolution failed", zap.Error(err))
		return failed(err), nil
	}

	lookup, err := a.orders.Lookup(ctx, a.connectionID, rec.OrderID)
	if err != nil {
		l.Warn("Order lookup failed", zap.Error(err))
		return failed(err), nil
	}

	payload, err := a.orders.Build(rec, items, a.connectionID, customerID, lookup)
	if err != nil {
		return reconcile.Outcome{PostType: lookup.PostType()}, err
	}

	l.Debug("Pushing order",
		zap.String("post_type", string(lookup.PostType())),
		zap.String("customer_id", customerID.String()),
		zap.Int("products", len(payload.Order.OrderProducts)),
	)
	return a.orders.Push(ctx, payload, lookup), nil
}

// Commit implements reconcile.Adapter.
func (a *Adapter) Commit(ctx context.Context, record reconcile.Record, outcome reconcile.Outcome) error {
	rec := record.(*StagedRecord)
	if err := a.store.SaveOutcome(ctx, rec.TransactionID, outcome, a.now().UTC()); err != nil {
		return err
	}
	rec.Status = outcome.Status
	rec.PostType = outcome.PostType
	rec.Response = outcome.Response
	return nil
}

func failed(err error) reconcile.Outcome {
	return reconcile.Outcome{
		Status:   reconcile.StatusError,
		Response: responseText(err),
	}
}
