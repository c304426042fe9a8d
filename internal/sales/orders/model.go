package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus enumerates the order lifecycle.
type SalesOrderStatus string

const (
	// SalesOrderStatusDraft is a created but unfulfilled order.
	SalesOrderStatusDraft SalesOrderStatus = "draft"
	// SalesOrderStatusCompleted means every line has been issued from stock.
	SalesOrderStatusCompleted SalesOrderStatus = "completed"
	// SalesOrderStatusCancelled is a draft that will never be fulfilled.
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
)

// SalesOrder models an order header. OrderUID is the stable document id the
// inventory ledger references from its `sales` transactions.
type SalesOrder struct {
	ID         int64            `json:"id"`
	DocNumber  string           `json:"doc_number"`
	OrderUID   uuid.UUID        `json:"order_uid"`
	CustomerID int64            `json:"customer_id"`
	Status     SalesOrderStatus `json:"status"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Total      decimal.Decimal  `json:"total"`
	Notes      string           `json:"notes,omitempty"`
	CreatedBy  int64            `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Lines      []SalesOrderLine `json:"lines,omitempty"`
}

// SalesOrderLine models one product position on an order.
type SalesOrderLine struct {
	ID           int64           `json:"id"`
	SalesOrderID int64           `json:"sales_order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineTotal    decimal.Decimal `json:"line_total"`
}
