package ecommerce

import (
	"context"
	"testing"
	"time"

	"ecomm-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type syncHarness struct {
	store  *Store
	crm    *fakeCRM
	engine *reconcile.Engine
}

func newHarness(t *testing.T, cfg Config) *syncHarness {
	store := setupStore(t)
	fake := newFakeCRM(t)
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.OrderSource == "" {
		cfg.OrderSource = "1"
	}
	adapter := NewAdapter(store, fake.client(), testConnectionID, cfg, zap.NewNop())
	return &syncHarness{store: store, crm: fake, engine: reconcile.NewEngine(adapter, zap.NewNop())}
}

func (h *syncHarness) stage(t *testing.T, rec StagedRecord, items ...LineItem) {
	require.NoError(t, h.store.Stage(context.Background(), rec))
	require.NoError(t, h.store.StageLineItems(context.Background(), items...))
}

func (h *syncHarness) pass(t *testing.T) *reconcile.PassSummary {
	summary, err := h.engine.RunPass(context.Background())
	require.NoError(t, err)
	return summary
}

func (h *syncHarness) record(t *testing.T, txID string) *StagedRecord {
	rec, err := h.store.Get(context.Background(), txID)
	require.NoError(t, err)
	return rec
}

func TestAdapter_CreatesCustomerAndOrder(t *testing.T) {
	h := newHarness(t, Config{})

	rec := pendingRecord("T1", "O1", "jane@example.com")
	rec.TicketsValue = dec("12.345")
	rec.UpsellsValue = dec("0")
	rec.SalesTax = dec("0")
	h.stage(t, rec,
		ticketLine("T1", "O1", "ADULT", 1, "6.00"),
		ticketLine("T1", "O1", "ADULT", 1, "6.00"),
		ticketLine("T1", "O1", "CHILD", 1, "0.345"),
	)

	summary := h.pass(t)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Updated)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusUpdated, got.Status)
	assert.Equal(t, reconcile.PostInsert, got.PostType)
	assert.NotEmpty(t, got.RemoteOrderID)
	assert.Contains(t, got.Response, `"externalid":"O1"`)

	assert.Equal(t, 1, h.crm.customerCount("jane@example.com"))
	order := h.crm.order("O1")
	require.NotNil(t, order)
	assert.Equal(t, float64(1235), order["totalPrice"])
	assert.Equal(t, "3", order["connectionid"])
	assert.Equal(t, "1", order["source"])
	assert.Equal(t, "USD", order["currency"])

	products := order["orderProducts"].([]any)
	require.Len(t, products, 2)
	adult := products[0].(map[string]any)
	assert.Equal(t, "ADULT", adult["externalid"])
	assert.Equal(t, float64(2), adult["quantity"])
	assert.Equal(t, float64(600), adult["price"])
	assert.Equal(t, float64(35), products[1].(map[string]any)["price"])

	h.crm.mu.Lock()
	assert.Equal(t, "1", h.crm.customers[0].AcceptsMarketing)
	assert.Equal(t, "P-O1", h.crm.customers[0].ExternalID)
	h.crm.mu.Unlock()
}

func TestAdapter_SecondPassIsIdempotent(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"), ticketLine("T1", "O1", "ADULT", 2, "50"))

	h.pass(t)
	writes := h.crm.callCount("POST /ecomOrders") + h.crm.callCount("PUT /ecomOrders") + h.crm.callCount("POST /ecomCustomers")
	assert.Equal(t, 2, writes)

	summary := h.pass(t)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, writes, h.crm.callCount("POST /ecomOrders")+h.crm.callCount("PUT /ecomOrders")+h.crm.callCount("POST /ecomCustomers"))
}

func TestAdapter_ResyncUpdatesExistingOrder(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"), ticketLine("T1", "O1", "ADULT", 2, "50"))
	h.pass(t)
	created := h.record(t, "T1")

	// A later change to the same order is staged under a new transaction.
	changed := pendingRecord("T2", "O1", "jane@example.com")
	changed.TicketsValue = dec("150")
	h.stage(t, changed, ticketLine("T2", "O1", "ADULT", 3, "50"))
	summary := h.pass(t)
	assert.Equal(t, 1, summary.Updated)

	updated := h.record(t, "T2")
	assert.Equal(t, reconcile.StatusUpdated, updated.Status)
	assert.Equal(t, reconcile.PostUpdate, updated.PostType)
	assert.Equal(t, created.RemoteOrderID, updated.RemoteOrderID)

	assert.Equal(t, 1, h.crm.callCount("POST /ecomOrders"))
	assert.Equal(t, 1, h.crm.callCount("PUT /ecomOrders"))
	assert.Equal(t, 1, h.crm.customerCount("jane@example.com"))

	order := h.crm.order("O1")
	assert.Equal(t, float64(18025), order["totalPrice"])
	// The create-time connection survives the update untouched.
	assert.Equal(t, "3", order["connectionid"])
}

func TestAdapter_OneCustomerPerEmail(t *testing.T) {
	h := newHarness(t, Config{})
	for _, id := range []string{"1", "2", "3"} {
		h.stage(t, pendingRecord("T"+id, "O"+id, "jane@example.com"), ticketLine("T"+id, "O"+id, "ADULT", 1, "10"))
	}

	summary := h.pass(t)
	assert.Equal(t, 3, summary.Updated)
	assert.Equal(t, 1, h.crm.customerCount("jane@example.com"))
	assert.Equal(t, 1, h.crm.callCount("POST /ecomCustomers"))
	assert.Equal(t, 3, h.crm.callCount("POST /ecomOrders"))
}

func TestAdapter_RecordsAreIsolated(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "a@example.com"), ticketLine("T1", "O1", "ADULT", 1, "10"))
	h.stage(t, pendingRecord("T2", "O2", "b@example.com"), ticketLine("T2", "O2", "ADULT", -4, "10"))
	h.stage(t, pendingRecord("T3", "O3", "c@example.com"), ticketLine("T3", "O3", "ADULT", 1, "10"))

	summary := h.pass(t)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Errors)

	assert.Equal(t, reconcile.StatusUpdated, h.record(t, "T1").Status)
	assert.Equal(t, reconcile.StatusUpdated, h.record(t, "T3").Status)

	failed := h.record(t, "T2")
	assert.Equal(t, reconcile.StatusError, failed.Status)
	assert.Contains(t, failed.Response, "negative quantity")
	assert.Nil(t, h.crm.order("O2"))
}

func TestAdapter_InvalidRecordIsError(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", ""))

	summary := h.pass(t)
	assert.Equal(t, 1, summary.Errors)
	assert.Contains(t, h.record(t, "T1").Response, "order_email")
	assert.Equal(t, 0, h.crm.callCount("GET /ecomCustomers"))
}

func TestAdapter_CustomerLookupFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.crm.fail["GET /ecomCustomers"] = 500
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	h.pass(t)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Contains(t, got.Response, "API error status: 500")
	assert.Contains(t, got.Response, "forced failure")
	assert.Equal(t, 0, h.crm.callCount("POST /ecomCustomers"))
	assert.Equal(t, 0, h.crm.callCount("GET /ecomOrders"))
}

func TestAdapter_LookupWithoutListWritesNothing(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		contains string
	}{
		{"customer", "GET /ecomCustomers", "no ecomCustomers"},
		{"order", "GET /ecomOrders", "no ecomOrders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Config{})
			h.crm.bare[tt.op] = true
			h.stage(t, pendingRecord("T1", "O1", "jane@example.com"), ticketLine("T1", "O1", "ADULT", 1, "10"))

			summary := h.pass(t)
			assert.Equal(t, 1, summary.Errors)

			got := h.record(t, "T1")
			assert.Equal(t, reconcile.StatusError, got.Status)
			assert.Contains(t, got.Response, tt.contains)
			assert.Equal(t, 0, h.crm.callCount("POST /ecomOrders"))
			assert.Equal(t, 0, h.crm.callCount("PUT /ecomOrders"))
		})
	}
}

func TestAdapter_OrderLookupReturnsOtherOrder(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))
	h.pass(t)

	h.crm.lookupWrongExternalID = true
	h.stage(t, pendingRecord("T2", "O1", "jane@example.com"))
	h.pass(t)

	got := h.record(t, "T2")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Contains(t, got.Response, `"externalid":"O1-other"`)
	assert.Equal(t, 0, h.crm.callCount("PUT /ecomOrders"))
}

func TestAdapter_UpdateEchoesOtherID(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))
	h.pass(t)

	h.crm.echoWrongID = true
	h.stage(t, pendingRecord("T2", "O1", "jane@example.com"))
	summary := h.pass(t)
	assert.Equal(t, 1, summary.Ambiguous)

	got := h.record(t, "T2")
	assert.Equal(t, reconcile.StatusAmbiguous, got.Status)
	assert.Equal(t, reconcile.PostUpdate, got.PostType)
	assert.NotEqual(t, h.record(t, "T1").RemoteOrderID, got.RemoteOrderID)

	// Ambiguous records are never retried.
	assert.Equal(t, 0, h.pass(t).Total)
}

func TestAdapter_CreateWithoutIDIsAmbiguous(t *testing.T) {
	h := newHarness(t, Config{})
	h.crm.omitOrderID = true
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	h.pass(t)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusAmbiguous, got.Status)
	assert.Equal(t, reconcile.PostInsert, got.PostType)
	assert.Empty(t, got.RemoteOrderID)
}

func TestAdapter_OrderRejected(t *testing.T) {
	h := newHarness(t, Config{})
	h.crm.fail["POST /ecomOrders"] = 422
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	h.pass(t)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Equal(t, reconcile.PostInsert, got.PostType)
	assert.Contains(t, got.Response, "API error status: 422")
}

func TestAdapter_RequireActiveList(t *testing.T) {
	h := newHarness(t, Config{RequireActiveList: true, ContactCacheTTL: time.Minute})
	h.crm.contacts["subscribed@example.com"] = "1"
	h.crm.contacts["unsubscribed@example.com"] = "2"

	h.stage(t, pendingRecord("T1", "O1", "subscribed@example.com"))
	h.stage(t, pendingRecord("T2", "O2", "unsubscribed@example.com"))
	h.stage(t, pendingRecord("T3", "O3", "stranger@example.com"))

	summary := h.pass(t)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 2, summary.Skipped)

	assert.Equal(t, reconcile.StatusUpdated, h.record(t, "T1").Status)
	skipped := h.record(t, "T2")
	assert.Equal(t, reconcile.StatusSkipped, skipped.Status)
	assert.Equal(t, reconcile.PostNone, skipped.PostType)
	assert.Equal(t, reconcile.StatusSkipped, h.record(t, "T3").Status)

	assert.Equal(t, 0, h.crm.customerCount("unsubscribed@example.com"))
	assert.Equal(t, 1, h.crm.callCount("POST /ecomCustomers"))
}

func TestAdapter_ContactLookupFailureIsError(t *testing.T) {
	h := newHarness(t, Config{RequireActiveList: true})
	h.crm.fail["GET /contacts"] = 502
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	h.pass(t)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Contains(t, got.Response, "502")
}

func TestAdapter_ContactsWithoutListIsError(t *testing.T) {
	h := newHarness(t, Config{RequireActiveList: true})
	h.crm.bare["GET /contacts"] = true
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	summary := h.pass(t)
	assert.Equal(t, 0, summary.Skipped)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Contains(t, got.Response, "no contacts")
	assert.Equal(t, 0, h.crm.callCount("GET /ecomCustomers"))
}

func TestAdapter_LineItemReadFailureDefers(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"), ticketLine("T1", "O1", "ADULT", 1, "10"))
	require.NoError(t, h.store.db.Migrator().DropTable(&LineItem{}))

	summary := h.pass(t)
	assert.Equal(t, 1, summary.Deferred)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Committed)

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusPending, got.Status)
	assert.Empty(t, got.Response)
	for _, op := range []string{"GET /ecomCustomers", "POST /ecomCustomers", "GET /ecomOrders", "POST /ecomOrders"} {
		assert.Equal(t, 0, h.crm.callCount(op), op)
	}

	// Once the table is back the record goes through.
	require.NoError(t, h.store.AutoMigrate(context.Background()))
	require.NoError(t, h.store.StageLineItems(context.Background(), ticketLine("T1", "O1", "ADULT", 1, "10")))
	summary = h.pass(t)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, reconcile.StatusUpdated, h.record(t, "T1").Status)
}

func TestAdapter_CommitFailureLeavesRecordForNextPass(t *testing.T) {
	h := newHarness(t, Config{})
	h.stage(t, pendingRecord("T1", "O1", "jane@example.com"))

	// Another writer settles the row while the remote call is in flight.
	h.crm.onOrderWrite = func(string) {
		err := h.store.db.Model(&StagedRecord{}).
			Where("transaction_id = ?", "T1").
			Update("order_update_status", reconcile.StatusError).Error
		assert.NoError(t, err)
	}

	summary := h.pass(t)
	assert.Equal(t, 1, summary.CommitFailures)
	assert.Equal(t, 0, summary.Updated)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Committed)
	assert.Contains(t, summary.Results[0].Error, ErrStaleRecord.Error())

	got := h.record(t, "T1")
	assert.Equal(t, reconcile.StatusError, got.Status)
	assert.Empty(t, got.RemoteOrderID)
}
