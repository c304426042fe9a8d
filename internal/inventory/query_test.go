package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, repo *memoryRepo) {
	t.Helper()
	repo.addProduct(1, 0, productMeta{code: "PARA500", name: "Paracetamol 500mg"})
	repo.addProduct(2, 0, productMeta{code: "AMOX250", name: "Amoxicillin 250mg"})
	ledger := testLedger(repo)
	ctx := context.Background()

	_, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 30})
	require.NoError(t, err)
	_, err = ledger.RecordStockIn(ctx, MovementInput{ProductID: 2, Quantity: 12})
	require.NoError(t, err)
	_, err = ledger.RecordSale(ctx, MovementInput{ProductID: 1, Quantity: 5})
	require.NoError(t, err)
}

func TestQueryProductHistory(t *testing.T) {
	repo := newMemoryRepo()
	seedHistory(t, repo)
	query := NewQuery(repo, nil)

	history, err := query.ProductHistory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	require.Equal(t, TransactionTypeSale, history[0].Type)
	require.Equal(t, TransactionTypeStockIn, history[1].Type)

	_, err = query.ProductHistory(context.Background(), 0)
	require.ErrorIs(t, err, ErrProductRequired)
}

func TestQueryLatestDefaultsLimit(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{})
	ledger := testLedger(repo)
	for i := 0; i < 15; i++ {
		_, err := ledger.RecordStockIn(context.Background(), MovementInput{ProductID: 1, Quantity: 1})
		require.NoError(t, err)
	}
	query := NewQuery(repo, nil)

	latest, err := query.Latest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, latest, 10)

	latest, err = query.Latest(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
}

func TestQueryByID(t *testing.T) {
	repo := newMemoryRepo()
	seedHistory(t, repo)
	query := NewQuery(repo, nil)

	entry, err := query.ByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ID)

	_, err = query.ByID(context.Background(), 0)
	require.ErrorIs(t, err, ErrTransactionNotFound)
	_, err = query.ByID(context.Background(), 999)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestQueryByDateRange(t *testing.T) {
	repo := newMemoryRepo()
	seedHistory(t, repo)
	query := NewQuery(repo, nil)
	now := time.Now().UTC()

	entries, err := query.ByDateRange(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	_, err = query.ByDateRange(context.Background(), now, now.Add(-time.Hour))
	require.ErrorIs(t, err, ErrInvalidDateRange)
	_, err = query.ByDateRange(context.Background(), time.Time{}, now)
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestQueryByReferenceValidates(t *testing.T) {
	repo := newMemoryRepo()
	query := NewQuery(repo, nil)

	_, err := query.ByReference(context.Background(), Reference{Type: "invoice", ID: uuid.New()})
	require.ErrorIs(t, err, ErrUnknownReferenceType)
	_, err = query.ByReference(context.Background(), Reference{Type: ReferenceSalesOrder})
	require.ErrorIs(t, err, ErrReferenceIDRequired)
}

func TestQueryLowStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 2, productMeta{code: "PARA500", name: "Paracetamol 500mg"})
	repo.addProduct(2, 8, productMeta{code: "AMOX250", name: "Amoxicillin 250mg"})
	repo.addProduct(3, 80, productMeta{code: "VITC", name: "Vitamin C"})
	repo.addProduct(4, 1, productMeta{code: "OLD", name: "Delisted", discontinued: true})
	query := NewQuery(repo, nil)

	items, err := query.LowStock(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Ascending by stock, discontinued products excluded.
	require.Equal(t, int64(1), items[0].ProductID)
	require.Equal(t, int64(2), items[1].ProductID)
}

func TestQueryLowStockUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewLowStockCache(client, time.Minute)

	repo := newMemoryRepo()
	repo.addProduct(1, 3, productMeta{code: "PARA500", name: "Paracetamol 500mg"})
	query := NewQuery(repo, cache)
	ctx := context.Background()

	items, err := query.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Second read is served from Redis, so repository changes stay invisible
	// until invalidation.
	repo.addProduct(2, 1, productMeta{code: "AMOX250", name: "Amoxicillin 250mg"})
	items, err = query.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	cache.InvalidateLowStock(ctx)
	items, err = query.LowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestQueryReconcileDetectsDrift(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{})
	ledger := testLedger(repo)
	query := NewQuery(repo, nil)
	ctx := context.Background()

	_, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 10})
	require.NoError(t, err)

	report, err := query.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.True(t, report.Balanced())

	// A write outside the ledger shows up as drift.
	repo.stocks[1] = 14
	report, err = query.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.False(t, report.Balanced())
	require.Equal(t, 4, report.Drift)
}
