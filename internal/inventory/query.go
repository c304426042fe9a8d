package inventory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// QueryRepository exposes the read side of the ledger.
type QueryRepository interface {
	ListByProduct(ctx context.Context, productID int64) ([]Transaction, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error)
	ListLatest(ctx context.Context, limit int) ([]Transaction, error)
	GetByID(ctx context.Context, id int64) (Transaction, error)
	ListByReference(ctx context.Context, ref Reference) ([]Transaction, error)
	ListLowStock(ctx context.Context, threshold int) ([]ProductStock, error)
	GetStock(ctx context.Context, productID int64) (StockLevel, error)
	SumDeltas(ctx context.Context, productID int64) (int, error)
}

// ProductStock is one row of a low-stock listing.
type ProductStock struct {
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

// ReconciliationReport compares a product's stock against its ledger sum.
type ReconciliationReport struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
	LedgerSum int   `json:"ledger_sum"`
	Drift     int   `json:"drift"`
}

// Balanced reports whether stock matches the ledger.
func (r ReconciliationReport) Balanced() bool {
	return r.Drift == 0
}

// Query answers read-only questions over the persisted transaction history.
type Query struct {
	repo  QueryRepository
	cache *LowStockCache
	group singleflight.Group
}

// NewQuery builds a Query. Cache is optional.
func NewQuery(repo QueryRepository, cache *LowStockCache) *Query {
	return &Query{repo: repo, cache: cache}
}

// ProductHistory lists all transactions for a product, newest first.
func (q *Query) ProductHistory(ctx context.Context, productID int64) ([]Transaction, error) {
	if productID <= 0 {
		return nil, ErrProductRequired
	}
	return q.repo.ListByProduct(ctx, productID)
}

// ByDateRange lists transactions created within [from, to], newest first.
func (q *Query) ByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrInvalidDateRange
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start after end", ErrInvalidDateRange)
	}
	return q.repo.ListByDateRange(ctx, from, to)
}

// Latest lists the most recent transactions across all products, newest
// first. A non-positive limit defaults to 10.
func (q *Query) Latest(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return q.repo.ListLatest(ctx, limit)
}

// ByID fetches one transaction; absent ids yield ErrTransactionNotFound.
func (q *Query) ByID(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, ErrTransactionNotFound
	}
	return q.repo.GetByID(ctx, id)
}

// ByReference lists all transactions linked to one external document.
func (q *Query) ByReference(ctx context.Context, ref Reference) ([]Transaction, error) {
	validated, err := NewReference(ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	return q.repo.ListByReference(ctx, validated)
}

// LowStock lists non-discontinued products with stock at or under threshold,
// ascending by stock. Results are served from Redis when warm; concurrent
// cold reads for the same threshold collapse into one repository call.
func (q *Query) LowStock(ctx context.Context, threshold int) ([]ProductStock, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	if items, ok := q.cache.Get(ctx, threshold); ok {
		return items, nil
	}
	result, err, _ := q.group.Do(fmt.Sprintf("lowstock:%d", threshold), func() (any, error) {
		items, err := q.repo.ListLowStock(ctx, threshold)
		if err != nil {
			return nil, err
		}
		q.cache.Set(ctx, threshold, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ProductStock), nil
}

// Reconcile checks the reconciliation invariant for one product: current
// stock must equal the sum of all recorded deltas.
func (q *Query) Reconcile(ctx context.Context, productID int64) (ReconciliationReport, error) {
	if productID <= 0 {
		return ReconciliationReport{}, ErrProductRequired
	}
	stock, err := q.repo.GetStock(ctx, productID)
	if err != nil {
		return ReconciliationReport{}, err
	}
	sum, err := q.repo.SumDeltas(ctx, productID)
	if err != nil {
		return ReconciliationReport{}, err
	}
	return ReconciliationReport{
		ProductID: productID,
		Stock:     stock.Int(),
		LedgerSum: sum,
		Drift:     stock.Int() - sum,
	}, nil
}
