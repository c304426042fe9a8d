package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/shared"
)

type staticExpired struct {
	items []products.Product
}

func (s staticExpired) ListExpired(ctx context.Context, asOf time.Time) ([]products.Product, error) {
	return s.items, nil
}

type recordingLedger struct {
	calls    []inventory.MovementInput
	conflict map[int64]bool
}

func (l *recordingLedger) RecordExpired(ctx context.Context, input inventory.MovementInput) (inventory.Transaction, error) {
	if l.conflict[input.ProductID] {
		return inventory.Transaction{}, shared.ErrIdempotencyConflict
	}
	l.calls = append(l.calls, input)
	return inventory.Transaction{ProductID: input.ProductID, Type: inventory.TransactionTypeExpired, Quantity: -input.Quantity}, nil
}

func TestExpiredSweepWritesOffStock(t *testing.T) {
	expiry := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	source := staticExpired{items: []products.Product{
		{ID: 1, Code: "PARA500", Stock: 9, ExpiresAt: &expiry},
		{ID: 2, Code: "AMOX250", Stock: 0, ExpiresAt: &expiry},
	}}
	ledger := &recordingLedger{}
	handler := NewExpiredSweepHandler(source, ledger, slog.Default())

	task, err := NewExpiredSweepTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	// Only the product still holding stock is written off.
	require.Len(t, ledger.calls, 1)
	require.Equal(t, int64(1), ledger.calls[0].ProductID)
	require.Equal(t, 9, ledger.calls[0].Quantity)
	require.Contains(t, ledger.calls[0].IdempotencyKey, "expired:1:")
}

func TestExpiredSweepSkipsAlreadySwept(t *testing.T) {
	expiry := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	source := staticExpired{items: []products.Product{
		{ID: 1, Code: "PARA500", Stock: 9, ExpiresAt: &expiry},
		{ID: 2, Code: "AMOX250", Stock: 4, ExpiresAt: &expiry},
	}}
	ledger := &recordingLedger{conflict: map[int64]bool{1: true}}
	handler := NewExpiredSweepHandler(source, ledger, slog.Default())

	task, err := NewExpiredSweepTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	// The duplicate claim is not an error, the rest of the sweep continues.
	require.Len(t, ledger.calls, 1)
	require.Equal(t, int64(2), ledger.calls[0].ProductID)
}
