package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pharmapos/pharmapos/internal/platform/db"
)

var ErrNotFound = errors.New("sales order not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	List(ctx context.Context, filters ListFilters) ([]SalesOrder, error)
	Create(ctx context.Context, order SalesOrder) (int64, error)
	InsertLine(ctx context.Context, line SalesOrderLine) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status SalesOrderStatus) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

// ListFilters narrows List to a status and a page window.
type ListFilters struct {
	Status string
	Page   int
	Limit  int
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, doc_number, order_uid, customer_id, status, subtotal, total, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.sales_order_id, l.product_id, p.name, l.quantity, l.unit_price, l.line_total
		FROM sales_order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.sales_order_id = $1
		ORDER BY l.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line SalesOrderLine
		if err := rows.Scan(&line.ID, &line.SalesOrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders`
	args := []any{}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	args = append(args, (page-1)*limit)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, order SalesOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (doc_number, order_uid, customer_id, status, subtotal, total, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		order.DocNumber, order.OrderUID, order.CustomerID, order.Status,
		order.Subtotal, order.Total, order.Notes, order.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line SalesOrderLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_order_lines (sales_order_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		line.SalesOrderID, line.ProductID, line.Quantity, line.UnitPrice, line.LineTotal,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status SalesOrderStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE sales_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	// SO-{YY}{MM}-{SEQ}
	var count int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM sales_orders WHERE created_at >= date_trunc('month', $1::timestamptz)`, date).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%s-%04d", date.Format("0601"), count+1), nil
}

func scanOrder(row pgx.Row) (*SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(
		&o.ID, &o.DocNumber, &o.OrderUID, &o.CustomerID, &o.Status,
		&o.Subtotal, &o.Total, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
