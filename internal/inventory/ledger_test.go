package inventory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pharmapos/pharmapos/internal/shared"
)

type productMeta struct {
	code         string
	name         string
	discontinued bool
}

type memoryRepo struct {
	stocks       map[int64]StockLevel
	meta         map[int64]productMeta
	transactions []Transaction
	nextID       int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stocks: make(map[int64]StockLevel),
		meta:   make(map[int64]productMeta),
	}
}

func (r *memoryRepo) addProduct(id int64, stock int, meta productMeta) {
	r.stocks[id] = StockLevel(stock)
	r.meta[id] = meta
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, productID int64) (StockLevel, error) {
	stock, ok := tx.repo.stocks[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

func (tx *memoryTx) UpdateStock(ctx context.Context, productID int64, level StockLevel) error {
	if _, ok := tx.repo.stocks[productID]; !ok {
		return ErrProductNotFound
	}
	tx.repo.stocks[productID] = level
	return nil
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, entry Transaction) (Transaction, error) {
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	entry.CreatedAt = time.Now().UTC()
	tx.repo.transactions = append(tx.repo.transactions, entry)
	return entry, nil
}

// Read side, newest first like the SQL queries.

func (r *memoryRepo) ListByProduct(ctx context.Context, productID int64) ([]Transaction, error) {
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].ProductID == productID {
			out = append(out, r.transactions[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		at := r.transactions[i].CreatedAt
		if !at.Before(from) && !at.After(to) {
			out = append(out, r.transactions[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) ListLatest(ctx context.Context, limit int) ([]Transaction, error) {
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.transactions[i])
	}
	return out, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id int64) (Transaction, error) {
	for _, entry := range r.transactions {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (r *memoryRepo) ListByReference(ctx context.Context, ref Reference) ([]Transaction, error) {
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		entry := r.transactions[i]
		if entry.Reference != nil && entry.Reference.Type == ref.Type && entry.Reference.ID == ref.ID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context, threshold int) ([]ProductStock, error) {
	var out []ProductStock
	for id, stock := range r.stocks {
		meta := r.meta[id]
		if meta.discontinued || !stock.IsLow(threshold) {
			continue
		}
		out = append(out, ProductStock{ProductID: id, Code: meta.code, Name: meta.name, Stock: stock.Int()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (r *memoryRepo) GetStock(ctx context.Context, productID int64) (StockLevel, error) {
	stock, ok := r.stocks[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

func (r *memoryRepo) SumDeltas(ctx context.Context, productID int64) (int, error) {
	var sum int
	for _, entry := range r.transactions {
		if entry.ProductID == productID {
			sum += entry.Quantity
		}
	}
	return sum, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) InvalidateLowStock(ctx context.Context) {
	c.invalidations++
}

type failingAudit struct{}

func (failingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	return errors.New("audit store down")
}

type countingMetrics struct {
	movements map[string]int
}

func (m *countingMetrics) CountMovement(transactionType string) {
	if m.movements == nil {
		m.movements = map[string]int{}
	}
	m.movements[transactionType]++
}

func testLedger(repo *memoryRepo) *Ledger {
	return NewLedger(nil, repo, nil, nil, nil, nil)
}

func TestLedgerMovements(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{code: "PARA500", name: "Paracetamol 500mg"})
	ledger := testLedger(repo)
	ctx := context.Background()

	in, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 20, Note: "GRN#1"})
	require.NoError(t, err)
	require.Equal(t, 20, in.Quantity)
	require.Equal(t, TransactionTypeStockIn, in.Type)

	sale, err := ledger.RecordSale(ctx, MovementInput{ProductID: 1, Quantity: 8})
	require.NoError(t, err)
	require.Equal(t, -8, sale.Quantity)

	ret, err := ledger.RecordReturn(ctx, MovementInput{ProductID: 1, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, 3, ret.Quantity)

	require.Equal(t, StockLevel(15), repo.stocks[1])

	sum, err := repo.SumDeltas(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 15, sum)
}

func TestLedgerInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 5, productMeta{})
	ledger := testLedger(repo)

	_, err := ledger.RecordStockOut(context.Background(), MovementInput{ProductID: 1, Quantity: 6})
	require.ErrorIs(t, err, ErrNegativeStock)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 6, insufficient.Requested)
	require.Equal(t, 5, insufficient.Available)

	// The failed movement must leave nothing behind.
	require.Equal(t, StockLevel(5), repo.stocks[1])
	require.Empty(t, repo.transactions)
}

func TestLedgerDrainToZero(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 5, productMeta{})
	ledger := testLedger(repo)

	out, err := ledger.RecordStockOut(context.Background(), MovementInput{ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, -5, out.Quantity)
	require.Equal(t, StockLevel(0), repo.stocks[1])
}

func TestLedgerValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 5, productMeta{})
	ledger := testLedger(repo)
	ctx := context.Background()

	_, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 0, Quantity: 5})
	require.ErrorIs(t, err, ErrProductRequired)

	_, err = ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: -5})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ledger.RecordStockIn(ctx, MovementInput{ProductID: 99, Quantity: 5})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestLedgerExpiredWriteOff(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 9, productMeta{})
	ledger := testLedger(repo)

	entry, err := ledger.RecordExpired(context.Background(), MovementInput{ProductID: 1, Quantity: 9, Note: "expired on 2026-08-01"})
	require.NoError(t, err)
	require.Equal(t, TransactionTypeExpired, entry.Type)
	require.Equal(t, -9, entry.Quantity)
	require.Equal(t, StockLevel(0), repo.stocks[1])
}

func TestLedgerMovementReference(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 10, productMeta{})
	ledger := testLedger(repo)
	ctx := context.Background()

	docID := uuid.New()
	_, err := ledger.RecordSale(ctx, MovementInput{
		ProductID: 1,
		Quantity:  4,
		Reference: &Reference{Type: ReferenceSalesOrder, ID: docID},
	})
	require.NoError(t, err)

	linked, err := repo.ListByReference(ctx, Reference{Type: ReferenceSalesOrder, ID: docID})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.Equal(t, -4, linked[0].Quantity)

	_, err = ledger.RecordSale(ctx, MovementInput{
		ProductID: 1,
		Quantity:  1,
		Reference: &Reference{Type: "invoice", ID: docID},
	})
	require.ErrorIs(t, err, ErrUnknownReferenceType)
}

func TestAdjustStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 12, productMeta{})
	ledger := testLedger(repo)
	ctx := context.Background()

	down, err := ledger.AdjustStock(ctx, AdjustmentInput{ProductID: 1, NewLevel: 5, Note: "stock opname"})
	require.NoError(t, err)
	require.Equal(t, TransactionTypeAdjustment, down.Type)
	require.Equal(t, -7, down.Quantity)
	require.Equal(t, StockLevel(5), repo.stocks[1])

	up, err := ledger.AdjustStock(ctx, AdjustmentInput{ProductID: 1, NewLevel: 9})
	require.NoError(t, err)
	require.Equal(t, 4, up.Quantity)
	require.Equal(t, StockLevel(9), repo.stocks[1])

	// Confirming the count is a valid adjustment with a zero delta.
	same, err := ledger.AdjustStock(ctx, AdjustmentInput{ProductID: 1, NewLevel: 9})
	require.NoError(t, err)
	require.Equal(t, 0, same.Quantity)

	_, err = ledger.AdjustStock(ctx, AdjustmentInput{ProductID: 1, NewLevel: -2})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Equal(t, StockLevel(9), repo.stocks[1])
}

func TestLedgerAfterCommitHooks(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{})
	audit := &recordingAudit{}
	cache := &countingCache{}
	metrics := &countingMetrics{}
	ledger := NewLedger(nil, repo, audit, nil, cache, metrics)
	ctx := context.Background()

	_, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 10, ActorID: 42})
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(42), audit.logs[0].ActorID)
	require.Equal(t, "inventory:stock_in", audit.logs[0].Action)
	require.Equal(t, 1, cache.invalidations)
	require.Equal(t, 1, metrics.movements["stock_in"])

	_, err = ledger.RecordSale(ctx, MovementInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, 1, metrics.movements["sales"])

	// Failed movements must not audit, count or invalidate.
	_, err = ledger.RecordStockOut(ctx, MovementInput{ProductID: 1, Quantity: 99})
	require.Error(t, err)
	require.Len(t, audit.logs, 2)
	require.Equal(t, 2, cache.invalidations)
	require.Equal(t, 2, len(metrics.movements))
}

func TestLedgerAuditFailureDoesNotBlockMovement(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{})
	metrics := &countingMetrics{}
	ledger := NewLedger(nil, repo, failingAudit{}, nil, nil, metrics)

	created, err := ledger.RecordStockIn(context.Background(), MovementInput{ProductID: 1, Quantity: 10})
	require.NoError(t, err)
	require.Equal(t, StockLevel(10), repo.stocks[1])
	require.Equal(t, 10, created.Quantity)
	require.Equal(t, 1, metrics.movements["stock_in"])
}

func TestLedgerReconciliationInvariant(t *testing.T) {
	repo := newMemoryRepo()
	repo.addProduct(1, 0, productMeta{})
	ledger := testLedger(repo)
	query := NewQuery(repo, nil)
	ctx := context.Background()

	_, err := ledger.RecordStockIn(ctx, MovementInput{ProductID: 1, Quantity: 50})
	require.NoError(t, err)
	_, err = ledger.RecordSale(ctx, MovementInput{ProductID: 1, Quantity: 13})
	require.NoError(t, err)
	_, err = ledger.AdjustStock(ctx, AdjustmentInput{ProductID: 1, NewLevel: 30})
	require.NoError(t, err)
	_, err = ledger.RecordExpired(ctx, MovementInput{ProductID: 1, Quantity: 4})
	require.NoError(t, err)

	report, err := query.Reconcile(ctx, 1)
	require.NoError(t, err)
	require.True(t, report.Balanced())
	require.Equal(t, 26, report.Stock)
	require.Equal(t, 26, report.LedgerSum)
}
