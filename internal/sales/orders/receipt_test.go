package orders

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pharmapos/pharmapos/internal/sales/customers"
)

func TestReceipt(t *testing.T) {
	order := &SalesOrder{
		DocNumber: "SO-2608-0001",
		CreatedAt: time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC),
		Subtotal:  decimal.RequireFromString("1250.00"),
		Total:     decimal.RequireFromString("1250.00"),
		Lines: []SalesOrderLine{
			{ProductID: 1, ProductName: "Paracetamol 500mg", Quantity: 100, UnitPrice: decimal.RequireFromString("12.50"), LineTotal: decimal.RequireFromString("1250.00")},
		},
	}

	text := Receipt(order, customers.Customer{Name: "Walk-in"})
	require.Contains(t, text, "SO-2608-0001")
	require.Contains(t, text, "Walk-in")
	require.Contains(t, text, "Paracetamol 500mg")
	// Locale-aware grouping on amounts.
	require.Contains(t, text, "1,250.00")
}

func TestReceiptTruncatesLongNamesOnRunes(t *testing.T) {
	order := &SalesOrder{
		DocNumber: "SO-2608-0002",
		CreatedAt: time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC),
		Total:     decimal.RequireFromString("5.00"),
		Lines: []SalesOrderLine{
			{ProductID: 1, ProductName: "Paracétamol effervescent 500mg sachet", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), LineTotal: decimal.RequireFromString("5.00")},
		},
	}

	text := Receipt(order, customers.Customer{Name: "Walk-in"})
	require.True(t, utf8.ValidString(text))
	require.Contains(t, text, "…")

	short := truncate("Paracétamol", 8)
	require.True(t, utf8.ValidString(short))
	require.Equal(t, "Paracét…", short)
	require.Equal(t, "Paracétamol", truncate("Paracétamol", 11))
}
