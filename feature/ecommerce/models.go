package ecommerce

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ecomm-sync/core/reconcile"

	"github.com/shopspring/decimal"
)

// StagedRecord is one source transaction awaiting synchronization.
// Rows are written by the extraction process; the sync only changes the
// status, post type, remote id, response and status timestamp columns.
type StagedRecord struct {
	TransactionID   string          `gorm:"column:transaction_id;primaryKey;size:64" json:"transaction_id"`
	OrderID         string          `gorm:"column:order_id;size:64;index" json:"order_id"`
	DestinationID   string          `gorm:"column:destination_id;size:64;index" json:"destination_id,omitempty"`
	Email           string          `gorm:"column:order_email;size:255" json:"email"`
	PatronAccountID string          `gorm:"column:patron_account_id;size:64" json:"patron_account_id"`
	OrderDate       *time.Time      `gorm:"column:order_date" json:"order_date,omitempty"`
	LastUpdated     *time.Time      `gorm:"column:last_updated_dtm" json:"last_updated,omitempty"`
	TicketsValue    decimal.Decimal `gorm:"column:tickets_value;type:decimal(14,4)" json:"tickets_value"`
	UpsellsValue    decimal.Decimal `gorm:"column:upsells_value;type:decimal(14,4)" json:"upsells_value"`
	SalesTax        decimal.Decimal `gorm:"column:sales_tax;type:decimal(14,4)" json:"sales_tax"`
	DiscountValue   decimal.Decimal `gorm:"column:discount_value;type:decimal(14,4)" json:"discount_value"`
	Coupon          string          `gorm:"column:coupon;size:100" json:"coupon,omitempty"`
	Currency        string          `gorm:"column:currency;size:3" json:"currency,omitempty"`

	Status          reconcile.Status   `gorm:"column:order_update_status;type:char(1);index" json:"status"`
	PostType        reconcile.PostType `gorm:"column:order_post_type;size:1" json:"post_type,omitempty"`
	RemoteOrderID   string             `gorm:"column:remote_order_id;size:64" json:"remote_order_id,omitempty"`
	Response        string             `gorm:"column:response_object;type:text" json:"response,omitempty"`
	StagedAt        time.Time          `gorm:"column:staged_at;index" json:"staged_at"`
	StatusUpdatedAt *time.Time         `gorm:"column:status_updated_at" json:"status_updated_at,omitempty"`
}

// TableName overrides the table name used by StagedRecord.
func (StagedRecord) TableName() string {
	return "ecomm_order_staging"
}

// ErrInvalidRecord marks a staged record that cannot be turned into a request.
var ErrInvalidRecord = errors.New("invalid staged record")

// Validate checks the fields required to build remote requests.
func (r *StagedRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(r.TransactionID) == "" {
		missing = append(missing, "transaction_id")
	}
	if strings.TrimSpace(r.OrderID) == "" {
		missing = append(missing, "order_id")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "order_email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidRecord, r.Email)
	}
	for name, v := range map[string]decimal.Decimal{
		"tickets_value":  r.TicketsValue,
		"upsells_value":  r.UpsellsValue,
		"sales_tax":      r.SalesTax,
		"discount_value": r.DiscountValue,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative %s %s", ErrInvalidRecord, name, v)
		}
	}
	return nil
}

// LineItem is one ticket line of a staged order.
type LineItem struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TransactionID string          `gorm:"column:transaction_id;size:64;index" json:"transaction_id"`
	OrderID       string          `gorm:"column:order_id;size:64;index" json:"order_id"`
	BuyerTypeCode string          `gorm:"column:buyer_type_code;size:32" json:"buyer_type_code"`
	BuyerTypeDesc string          `gorm:"column:buyer_type_desc;size:255" json:"buyer_type_desc"`
	Quantity      int             `gorm:"column:ticket_count" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"column:ticket_price;type:decimal(14,4)" json:"unit_price"`
	StagedAt      time.Time       `gorm:"column:staged_at;index" json:"staged_at"`
}

// TableName overrides the table name used by LineItem.
func (LineItem) TableName() string {
	return "ecomm_order_line_staging"
}

// Destination is a sales destination whose email activity gates its records.
type Destination struct {
	ID          string `gorm:"column:destination_id;primaryKey;size:64"`
	Name        string `gorm:"column:name;size:255"`
	EmailActive bool   `gorm:"column:email_active"`
}

// TableName overrides the table name used by Destination.
func (Destination) TableName() string {
	return "ecomm_destination"
}

// stagingColumns are the columns the sync reads or writes on the staging table.
var stagingColumns = []string{
	"transaction_id", "order_id", "destination_id", "order_email", "patron_account_id",
	"order_date", "last_updated_dtm", "tickets_value", "upsells_value", "sales_tax",
	"discount_value", "coupon", "currency", "order_update_status", "order_post_type",
	"remote_order_id", "response_object", "staged_at", "status_updated_at",
}
