package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
)

type staticCatalog struct {
	items []products.Product
}

func (c staticCatalog) List(ctx context.Context, filters products.ListFilters) ([]products.Product, int, error) {
	if filters.Page > 1 {
		return nil, len(c.items), nil
	}
	return c.items, len(c.items), nil
}

type staticReconciler struct {
	reports map[int64]inventory.ReconciliationReport
}

func (r staticReconciler) Reconcile(ctx context.Context, productID int64) (inventory.ReconciliationReport, error) {
	return r.reports[productID], nil
}

type recordingDrift struct {
	total int
}

func (d *recordingDrift) AddDrift(count int) {
	d.total += count
}

func TestStockReconcileCountsDrift(t *testing.T) {
	catalog := staticCatalog{items: []products.Product{
		{ID: 1, Code: "PARA500"},
		{ID: 2, Code: "AMOX250"},
		{ID: 3, Code: "IBUP400"},
	}}
	reconciler := staticReconciler{reports: map[int64]inventory.ReconciliationReport{
		1: {ProductID: 1, Stock: 10, LedgerSum: 10},
		2: {ProductID: 2, Stock: 14, LedgerSum: 10, Drift: 4},
		3: {ProductID: 3, Stock: 3, LedgerSum: 5, Drift: -2},
	}}
	drift := &recordingDrift{}
	handler := NewStockReconcileHandler(catalog, reconciler, drift, slog.Default())

	task, err := NewStockReconcileTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	// One increment per out-of-balance product.
	require.Equal(t, 2, drift.total)
}

func TestStockReconcileBalancedCatalog(t *testing.T) {
	catalog := staticCatalog{items: []products.Product{{ID: 1, Code: "PARA500"}}}
	reconciler := staticReconciler{reports: map[int64]inventory.ReconciliationReport{
		1: {ProductID: 1, Stock: 10, LedgerSum: 10},
	}}
	drift := &recordingDrift{}
	handler := NewStockReconcileHandler(catalog, reconciler, drift, slog.Default())

	task, err := NewStockReconcileTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Zero(t, drift.total)
}
