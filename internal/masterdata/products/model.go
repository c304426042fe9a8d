package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status values for a product.
const (
	StatusActive       = "active"
	StatusDiscontinued = "discontinued"
)

// Product represents a pharmacy product. Stock is owned by the inventory
// ledger; nothing in this package writes it.
type Product struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	GenericName string          `json:"generic_name"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Status      string          `json:"status"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Discontinued reports whether the product is out of the assortment.
func (p Product) Discontinued() bool {
	return p.Status == StatusDiscontinued
}

// Expired reports whether the product is past its expiry date at asOf.
func (p Product) Expired(asOf time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(asOf)
}
