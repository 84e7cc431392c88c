package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"ecomm-sync/core/crm"
	"ecomm-sync/core/database"
	"ecomm-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const testConnectionID = "3"

var stagedAt = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := NewStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))
	return store
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pendingRecord(txID, orderID, email string) StagedRecord {
	orderDate := time.Date(2024, 3, 30, 19, 30, 0, 0, time.UTC)
	return StagedRecord{
		TransactionID:   txID,
		OrderID:         orderID,
		Email:           email,
		PatronAccountID: "P-" + orderID,
		OrderDate:       &orderDate,
		LastUpdated:     &orderDate,
		TicketsValue:    dec("100.00"),
		UpsellsValue:    dec("20.50"),
		SalesTax:        dec("9.75"),
		DiscountValue:   decimal.Zero,
		Status:          reconcile.StatusPending,
		StagedAt:        stagedAt,
	}
}

func ticketLine(txID, orderID, code string, qty int, price string) LineItem {
	return LineItem{
		TransactionID: txID,
		OrderID:       orderID,
		BuyerTypeCode: code,
		BuyerTypeDesc: code + " ticket",
		Quantity:      qty,
		UnitPrice:     dec(price),
		StagedAt:      stagedAt,
	}
}

type fakeCustomer struct {
	ID               string `json:"id"`
	ConnectionID     string `json:"connectionid"`
	ExternalID       string `json:"externalid"`
	Email            string `json:"email"`
	AcceptsMarketing string `json:"acceptsMarketing"`
}

// fakeCRM is an in-memory CRM e-commerce API.
type fakeCRM struct {
	t  *testing.T
	mu sync.Mutex

	nextID    int
	customers []fakeCustomer
	orders    map[string]map[string]any // by external id
	orderIDs  map[string]string         // remote id -> external id
	contacts  map[string]string         // email -> list status
	calls     map[string]int

	// fail forces a status code for "METHOD /resource".
	fail map[string]int
	// bare answers 200 without the resource list for "METHOD /resource".
	bare map[string]bool
	// echoWrongID makes order updates return another id.
	echoWrongID bool
	// omitOrderID makes order creates return no id.
	omitOrderID bool
	// lookupWrongExternalID makes order lookups return a different external id.
	lookupWrongExternalID bool
	// onOrderWrite runs before an order create or update is answered.
	onOrderWrite func(externalID string)

	server *httptest.Server
}

func newFakeCRM(t *testing.T) *fakeCRM {
	f := &fakeCRM{
		t:        t,
		nextID:   100,
		orders:   map[string]map[string]any{},
		orderIDs: map[string]string{},
		contacts: map[string]string{},
		calls:    map[string]int{},
		fail:     map[string]int{},
		bare:     map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", f.handle("GET /contacts", f.findContact))
	mux.HandleFunc("GET /ecomCustomers", f.handle("GET /ecomCustomers", f.findCustomer))
	mux.HandleFunc("POST /ecomCustomers", f.handle("POST /ecomCustomers", f.createCustomer))
	mux.HandleFunc("GET /ecomOrders", f.handle("GET /ecomOrders", f.findOrder))
	mux.HandleFunc("POST /ecomOrders", f.handle("POST /ecomOrders", f.createOrder))
	mux.HandleFunc("PUT /ecomOrders/{id}", f.handle("PUT /ecomOrders", f.updateOrder))

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCRM) client() crm.Client {
	return crm.NewHTTPClient(crm.Config{BaseURL: f.server.URL, APIKey: "test", MaxRetries: 1}, nil)
}

func (f *fakeCRM) handle(op string, h func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Token") != "test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls[op]++
		if code, ok := f.fail[op]; ok {
			w.WriteHeader(code)
			fmt.Fprintf(w, `{"errors":[{"title":"forced failure for %s"}]}`, op)
			return
		}
		if f.bare[op] {
			f.write(w, http.StatusOK, map[string]any{"message": "ok"})
			return
		}
		h(w, r)
	}
}

func (f *fakeCRM) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeCRM) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func (f *fakeCRM) findContact(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("filters[email]")
	status, ok := f.contacts[email]
	if !ok {
		f.write(w, http.StatusOK, map[string]any{"contacts": []any{}, "contactLists": []any{}})
		return
	}
	f.write(w, http.StatusOK, map[string]any{
		"contacts":     []any{map[string]string{"id": "9", "email": email}},
		"contactLists": []any{map[string]string{"contact": "9", "list": "1", "status": status}},
	})
}

func (f *fakeCRM) findCustomer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found := []fakeCustomer{}
	for _, c := range f.customers {
		if c.ConnectionID == q.Get("filters[connectionid]") && c.Email == q.Get("filters[email]") {
			found = append(found, c)
		}
	}
	f.write(w, http.StatusOK, map[string]any{"ecomCustomers": found})
}

func (f *fakeCRM) createCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Customer fakeCustomer `json:"ecomCustomer"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	body.Customer.ID = f.id()
	f.customers = append(f.customers, body.Customer)
	f.write(w, http.StatusCreated, map[string]any{"ecomCustomer": body.Customer})
}

func (f *fakeCRM) findOrder(w http.ResponseWriter, r *http.Request) {
	externalID := r.URL.Query().Get("filters[externalid]")
	found := []map[string]any{}
	if order, ok := f.orders[externalID]; ok {
		ref := map[string]any{"id": order["id"], "externalid": externalID}
		if f.lookupWrongExternalID {
			ref["externalid"] = externalID + "-other"
		}
		found = append(found, ref)
	}
	f.write(w, http.StatusOK, map[string]any{"ecomOrders": found})
}

func (f *fakeCRM) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order map[string]any `json:"ecomOrder"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	externalID := body.Order["externalid"].(string)
	if f.onOrderWrite != nil {
		f.onOrderWrite(externalID)
	}

	id := f.id()
	body.Order["id"] = id
	f.orders[externalID] = body.Order
	f.orderIDs[id] = externalID

	if f.omitOrderID {
		f.write(w, http.StatusCreated, map[string]any{"ecomOrder": map[string]any{"externalid": externalID}})
		return
	}
	f.write(w, http.StatusCreated, map[string]any{"ecomOrder": body.Order})
}

func (f *fakeCRM) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	externalID, ok := f.orderIDs[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body struct {
		Order map[string]any `json:"ecomOrder"`
	}
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	if f.onOrderWrite != nil {
		f.onOrderWrite(externalID)
	}

	order := f.orders[externalID]
	for k, v := range body.Order {
		order[k] = v
	}

	echoed := id
	if f.echoWrongID {
		echoed = id + "0"
	}
	f.write(w, http.StatusOK, map[string]any{"ecomOrder": map[string]any{"id": echoed, "externalid": externalID}})
}

func (f *fakeCRM) customerCount(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.customers {
		if c.Email == email && c.ConnectionID == testConnectionID {
			n++
		}
	}
	return n
}

func (f *fakeCRM) order(externalID string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[externalID]
}

func (f *fakeCRM) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}
