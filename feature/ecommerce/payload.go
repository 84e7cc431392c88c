package ecommerce

import (
	"encoding/json"
	"fmt"
	"strconv"

	"ecomm-sync/core/crm"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amount is an exact currency amount. It is serialized as integer minor units
// (x100, rounded half away from zero) and nowhere else.
type Amount struct {
	value decimal.Decimal
}

// NewAmount wraps a decimal amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// Decimal returns the exact amount.
func (a Amount) Decimal() decimal.Decimal { return a.value }

// MinorUnits returns the amount in cents.
func (a Amount) MinorUnits() int64 {
	return a.value.Mul(hundred).Round(0).IntPart()
}

// MarshalJSON writes the amount as integer minor units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, a.MinorUnits(), 10), nil
}

// UnmarshalJSON reads integer minor units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be integer minor units: %w", err)
	}
	a.value = decimal.New(n, -2)
	return nil
}

// EcomCustomer is the remote customer payload.
type EcomCustomer struct {
	ID               crm.ID `json:"id,omitempty"`
	ConnectionID     string `json:"connectionid"`
	ExternalID       string `json:"externalid"`
	Email            string `json:"email"`
	AcceptsMarketing string `json:"acceptsMarketing,omitempty"`
}

// EcomCustomerWrapper is the request and response envelope for one customer.
type EcomCustomerWrapper struct {
	Customer EcomCustomer `json:"ecomCustomer"`
}

// EcomOrder is the remote order payload. Nil pointer fields are omitted so
// create-only fields can be dropped from updates.
type EcomOrder struct {
	ID                  crm.ID          `json:"id,omitempty"`
	ExternalID          string          `json:"externalid"`
	Source              *string         `json:"source,omitempty"`
	Email               string          `json:"email"`
	OrderProducts       []OrderProduct  `json:"orderProducts"`
	OrderDiscounts      []OrderDiscount `json:"orderDiscounts"`
	OrderURL            string          `json:"orderUrl"`
	ExternalCreatedDate *string         `json:"externalCreatedDate,omitempty"`
	ExternalUpdatedDate *string         `json:"externalUpdatedDate,omitempty"`
	ShippingMethod      string          `json:"shippingMethod"`
	TotalPrice          Amount          `json:"totalPrice"`
	ShippingAmount      Amount          `json:"shippingAmount"`
	TaxAmount           Amount          `json:"taxAmount"`
	DiscountAmount      Amount          `json:"discountAmount"`
	Currency            string          `json:"currency"`
	OrderNumber         string          `json:"orderNumber"`
	ConnectionID        *string         `json:"connectionid,omitempty"`
	CustomerID          *string         `json:"customerid,omitempty"`
}

// EcomOrderWrapper is the request and response envelope for one order.
type EcomOrderWrapper struct {
	Order EcomOrder `json:"ecomOrder"`
}

// OrderProduct is one aggregated ticket line.
type OrderProduct struct {
	ExternalID  string `json:"externalid"`
	Name        string `json:"name"`
	Price       Amount `json:"price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	ProductURL  string `json:"productUrl"`
}

// OrderDiscount is an order or item level discount.
type OrderDiscount struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	DiscountAmount Amount `json:"discountAmount"`
}

// remoteRef is the part of a listed remote object the resolvers need.
type remoteRef struct {
	ID         crm.ID `json:"id"`
	ExternalID string `json:"externalid"`
}

type contactList struct {
	Contact string `json:"contact"`
	List    string `json:"list"`
	Status  string `json:"status"`
}

type contact struct {
	ID    crm.ID `json:"id"`
	Email string `json:"email"`
}
