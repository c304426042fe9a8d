package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the ledger.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, productID int64) (StockLevel, error)
	UpdateStock(ctx context.Context, productID int64, level StockLevel) error
	InsertTransaction(ctx context.Context, entry Transaction) (Transaction, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const transactionColumns = `id, product_id, tx_type, quantity, note, ref_type, ref_id, created_at, updated_at`

// GetStockForUpdate locks the product row until the surrounding transaction
// ends, serialising concurrent movements per product.
func (r *txRepository) GetStockForUpdate(ctx context.Context, productID int64) (StockLevel, error) {
	var stock int
	err := r.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return NewStockLevel(stock)
}

func (r *txRepository) UpdateStock(ctx context.Context, productID int64, level StockLevel) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock=$2, updated_at=NOW() WHERE id=$1`, productID, level.Int())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, entry Transaction) (Transaction, error) {
	var refType, refID any
	if entry.Reference != nil {
		refType = string(entry.Reference.Type)
		refID = entry.Reference.ID
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_transactions (product_id, tx_type, quantity, note, ref_type, ref_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id, created_at`,
		entry.ProductID, string(entry.Type), entry.Quantity, entry.Note, refType, refID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return entry, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+`
FROM inventory_transactions WHERE product_id=$1
ORDER BY created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *Repository) ListByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+`
FROM inventory_transactions WHERE created_at BETWEEN $1 AND $2
ORDER BY created_at DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *Repository) ListLatest(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+`
FROM inventory_transactions
ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+`
FROM inventory_transactions WHERE id=$1`, id)
	entry, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return entry, nil
}

func (r *Repository) ListByReference(ctx context.Context, ref Reference) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+`
FROM inventory_transactions WHERE ref_type=$1 AND ref_id=$2
ORDER BY created_at DESC, id DESC`, string(ref.Type), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]ProductStock, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, stock FROM products
WHERE stock <= $1 AND status <> 'discontinued'
ORDER BY stock ASC, id ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ProductStock{}
	for rows.Next() {
		var item ProductStock
		if err := rows.Scan(&item.ProductID, &item.Code, &item.Name, &item.Stock); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) GetStock(ctx context.Context, productID int64) (StockLevel, error) {
	var stock int
	err := r.pool.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return NewStockLevel(stock)
}

func (r *Repository) SumDeltas(ctx context.Context, productID int64) (int, error) {
	var sum int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM inventory_transactions WHERE product_id=$1`, productID).Scan(&sum)
	return sum, err
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	entries := []Transaction{}
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		entry   Transaction
		txType  string
		refType *string
		refID   *uuid.UUID
	)
	if err := row.Scan(&entry.ID, &entry.ProductID, &txType, &entry.Quantity, &entry.Note,
		&refType, &refID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	entry.Type = TransactionType(txType)
	if refType != nil && refID != nil {
		entry.Reference = &Reference{Type: ReferenceType(*refType), ID: *refID}
	}
	return entry, nil
}
