package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ecomm-sync/core/crm"
	"ecomm-sync/core/reconcile"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// remoteDateLayout is the timestamp format of externalCreatedDate and externalUpdatedDate.
const remoteDateLayout = "2006-01-02T15:04:05"

// OrderLookup is the result of an existence check by external order id.
type OrderLookup struct {
	// Found is true when the remote order already exists.
	Found bool
	// RemoteID is the id of the existing order.
	RemoteID crm.ID
	// Body is the raw lookup response.
	Body string
}

// PostType returns the write the lookup calls for.
func (l OrderLookup) PostType() reconcile.PostType {
	if l.Found {
		return reconcile.PostUpdate
	}
	return reconcile.PostInsert
}

// OrderResolver decides create versus update for an order and builds its payload.
type OrderResolver struct {
	client   crm.Client
	source   string
	currency string
	logger   *zap.Logger
}

// NewOrderResolver creates a resolver. source is sent on create only;
// currency is used for records without one.
func NewOrderResolver(client crm.Client, source, currency string, logger *zap.Logger) *OrderResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderResolver{client: client, source: source, currency: currency, logger: logger}
}

// Lookup checks whether an order with externalOrderID exists in the connection.
// A returned order whose external id differs is reported as an error.
func (r *OrderResolver) Lookup(ctx context.Context, connectionID, externalOrderID string) (OrderLookup, error) {
	query := crm.Query{
		Resource: "ecomOrders",
		Filters: []crm.Filter{
			{Name: "connectionid", Value: crm.String(connectionID)},
			{Name: "externalid", Value: crm.String(externalOrderID)},
		},
	}

	resp := r.client.Send(ctx, http.MethodGet, query.Path(), nil)
	if !resp.OK() {
		return OrderLookup{}, remoteError("find order", resp)
	}

	var orders []remoteRef
	ok, err := crm.DecodeRoot(resp.Body, "ecomOrders", &orders)
	if err != nil {
		return OrderLookup{}, fmt.Errorf("order lookup: %w", err)
	}
	if !ok {
		return OrderLookup{}, fmt.Errorf("order lookup response has no ecomOrders: %s", resp.Body)
	}
	if len(orders) == 0 {
		return OrderLookup{Body: resp.Body}, nil
	}

	first := orders[0]
	if first.ExternalID != externalOrderID {
		return OrderLookup{}, &mismatchError{expected: externalOrderID, returned: first.ExternalID, body: resp.Body}
	}
	if first.ID == "" {
		return OrderLookup{}, fmt.Errorf("order lookup for %s returned a blank id", externalOrderID)
	}
	return OrderLookup{Found: true, RemoteID: first.ID, Body: resp.Body}, nil
}

// Build assembles the order payload. For an existing order the create-only
// fields (source, created date, connection and customer) are left out.
func (r *OrderResolver) Build(rec *StagedRecord, items []LineItem, connectionID string, customerID crm.ID, lookup OrderLookup) (EcomOrderWrapper, error) {
	products, err := aggregateLines(items)
	if err != nil {
		return EcomOrderWrapper{}, err
	}

	currency := rec.Currency
	if currency == "" {
		currency = r.currency
	}

	discounts := []OrderDiscount{}
	if rec.Coupon != "" {
		discounts = append(discounts, OrderDiscount{
			Name:           rec.Coupon,
			Type:           "order",
			DiscountAmount: NewAmount(rec.DiscountValue),
		})
	}

	order := EcomOrder{
		ExternalID:          rec.OrderID,
		Email:               rec.Email,
		OrderProducts:       products,
		OrderDiscounts:      discounts,
		ExternalUpdatedDate: formatDate(rec.LastUpdated),
		TotalPrice:          NewAmount(rec.TicketsValue.Add(rec.UpsellsValue).Add(rec.SalesTax)),
		ShippingAmount:      NewAmount(decimal.Zero),
		TaxAmount:           NewAmount(rec.SalesTax),
		DiscountAmount:      NewAmount(rec.DiscountValue),
		Currency:            currency,
		OrderNumber:         rec.OrderID,
	}

	if !lookup.Found {
		if customerID == "" {
			return EcomOrderWrapper{}, fmt.Errorf("%w: customer id is blank for order %s", ErrInvalidRecord, rec.OrderID)
		}
		order.Source = stringPtr(r.source)
		order.ExternalCreatedDate = formatDate(rec.OrderDate)
		order.ConnectionID = stringPtr(connectionID)
		order.CustomerID = stringPtr(customerID.String())
	}

	return EcomOrderWrapper{Order: order}, nil
}

// Push creates or updates the order and classifies the response.
func (r *OrderResolver) Push(ctx context.Context, payload EcomOrderWrapper, lookup OrderLookup) reconcile.Outcome {
	outcome := reconcile.Outcome{PostType: lookup.PostType()}

	var resp *crm.Response
	if lookup.Found {
		resp = r.client.Send(ctx, http.MethodPut, "ecomOrders/"+lookup.RemoteID.String(), payload)
	} else {
		resp = r.client.Send(ctx, http.MethodPost, "ecomOrders", payload)
	}

	if !resp.OK() {
		outcome.Status = reconcile.StatusError
		outcome.Response = resp.Describe()
		return outcome
	}
	outcome.Response = resp.Body

	var echoed EcomOrder
	found, err := crm.DecodeRoot(resp.Body, "ecomOrder", &echoed)
	switch {
	case err != nil || !found || echoed.ID == "":
		r.logger.Warn("Order response did not carry an id", zap.String("external_id", payload.Order.ExternalID))
		outcome.Status = reconcile.StatusAmbiguous
	case lookup.Found && echoed.ID != lookup.RemoteID:
		r.logger.Warn("Updated order id does not match",
			zap.String("expected", lookup.RemoteID.String()),
			zap.String("returned", echoed.ID.String()),
		)
		outcome.Status = reconcile.StatusAmbiguous
		outcome.RemoteID = echoed.ID.String()
	default:
		outcome.Status = reconcile.StatusUpdated
		outcome.RemoteID = echoed.ID.String()
	}
	return outcome
}

type lineKey struct {
	code  string
	desc  string
	price string
}

// aggregateLines groups ticket lines by buyer type and unit price, summing
// quantities. Products keep the order in which each group first appears.
func aggregateLines(items []LineItem) ([]OrderProduct, error) {
	products := []OrderProduct{}
	index := make(map[lineKey]int)

	for _, item := range items {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("%w: negative quantity for %s", ErrInvalidRecord, item.BuyerTypeCode)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: negative price for %s", ErrInvalidRecord, item.BuyerTypeCode)
		}

		key := lineKey{code: item.BuyerTypeCode, desc: item.BuyerTypeDesc, price: item.UnitPrice.String()}
		if i, ok := index[key]; ok {
			products[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(products)
		products = append(products, OrderProduct{
			ExternalID:  item.BuyerTypeCode,
			Name:        item.BuyerTypeDesc,
			Price:       NewAmount(item.UnitPrice),
			Quantity:    item.Quantity,
			Description: item.BuyerTypeDesc,
		})
	}
	return products, nil
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	return stringPtr(t.Format(remoteDateLayout))
}

func stringPtr(s string) *string {
	return &s
}
