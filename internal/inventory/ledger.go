package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pharmapos/pharmapos/internal/shared"
)

// RepositoryPort abstracts repository usage for the ledger.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort receives invalidation hints after stock changes.
type CachePort interface {
	InvalidateLowStock(ctx context.Context)
}

// MetricsPort counts committed movements by transaction type.
type MetricsPort interface {
	CountMovement(transactionType string)
}

// MovementInput describes a single stock movement request.
type MovementInput struct {
	ProductID      int64
	Quantity       int
	Note           string
	Reference      *Reference
	ActorID        int64
	IdempotencyKey string
}

// AdjustmentInput describes an authoritative stock correction.
type AdjustmentInput struct {
	ProductID      int64
	NewLevel       int
	Note           string
	ActorID        int64
	IdempotencyKey string
}

// Ledger is the single authority for mutating product stock. Every mutation
// writes the new stock level and appends one ledger entry in the same
// database transaction, guarded by a row lock on the product.
type Ledger struct {
	logger      *slog.Logger
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       CachePort
	metrics     MetricsPort
}

// NewLedger builds a Ledger. Audit, idempotency, cache and metrics are optional.
func NewLedger(logger *slog.Logger, repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cache CachePort, metrics MetricsPort) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{logger: logger, repo: repo, audit: audit, idempotency: idem, cache: cache, metrics: metrics}
}

// RecordStockIn posts an inbound movement, e.g. goods received.
func (l *Ledger) RecordStockIn(ctx context.Context, input MovementInput) (Transaction, error) {
	return l.post(ctx, TransactionTypeStockIn, input)
}

// RecordStockOut posts an outbound movement, e.g. a manual issue.
func (l *Ledger) RecordStockOut(ctx context.Context, input MovementInput) (Transaction, error) {
	return l.post(ctx, TransactionTypeStockOut, input)
}

// RecordSale posts the stock-out side of a fulfilled sales order line.
func (l *Ledger) RecordSale(ctx context.Context, input MovementInput) (Transaction, error) {
	return l.post(ctx, TransactionTypeSale, input)
}

// RecordReturn posts stock coming back from a customer return.
func (l *Ledger) RecordReturn(ctx context.Context, input MovementInput) (Transaction, error) {
	return l.post(ctx, TransactionTypeReturn, input)
}

// RecordExpired writes off stock past its expiry date.
func (l *Ledger) RecordExpired(ctx context.Context, input MovementInput) (Transaction, error) {
	return l.post(ctx, TransactionTypeExpired, input)
}

// AdjustStock overwrites the stock level with an authoritative count and
// records the signed difference. Unlike RecordStockOut it deliberately skips
// the insufficient-stock check: the count is the truth, not a request.
func (l *Ledger) AdjustStock(ctx context.Context, input AdjustmentInput) (Transaction, error) {
	if input.ProductID <= 0 {
		return Transaction{}, ErrProductRequired
	}
	target, err := NewStockLevel(input.NewLevel)
	if err != nil {
		return Transaction{}, err
	}

	release, err := l.claimKey(ctx, input.IdempotencyKey)
	if err != nil {
		return Transaction{}, err
	}

	var created Transaction
	err = l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		delta := target.Int() - current.Int()
		entry, err := NewTransaction(input.ProductID, TransactionTypeAdjustment, delta, input.Note, nil)
		if err != nil {
			return err
		}
		if err := tx.UpdateStock(ctx, input.ProductID, target); err != nil {
			return err
		}
		created, err = tx.InsertTransaction(ctx, entry)
		return err
	})
	if err != nil {
		release()
		return Transaction{}, err
	}
	l.afterCommit(ctx, input.ActorID, created)
	return created, nil
}

func (l *Ledger) post(ctx context.Context, typ TransactionType, input MovementInput) (Transaction, error) {
	if input.ProductID <= 0 {
		return Transaction{}, ErrProductRequired
	}
	if input.Quantity <= 0 {
		return Transaction{}, ErrInvalidQuantity
	}

	release, err := l.claimKey(ctx, input.IdempotencyKey)
	if err != nil {
		return Transaction{}, err
	}

	var created Transaction
	err = l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetStockForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}

		var next StockLevel
		delta := input.Quantity
		switch typ.Direction() {
		case DirectionIn:
			next, err = current.Add(input.Quantity)
		case DirectionOut:
			if input.Quantity > current.Int() {
				return &InsufficientStockError{
					ProductID: input.ProductID,
					Requested: input.Quantity,
					Available: current.Int(),
				}
			}
			next, err = current.Subtract(input.Quantity)
			delta = -input.Quantity
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTransactionType, typ)
		}
		if err != nil {
			return err
		}

		entry, err := NewTransaction(input.ProductID, typ, delta, input.Note, input.Reference)
		if err != nil {
			return err
		}
		if err := tx.UpdateStock(ctx, input.ProductID, next); err != nil {
			return err
		}
		created, err = tx.InsertTransaction(ctx, entry)
		return err
	})
	if err != nil {
		release()
		return Transaction{}, err
	}
	l.afterCommit(ctx, input.ActorID, created)
	return created, nil
}

// claimKey reserves an idempotency key when one is supplied. The returned
// release func removes the reservation again after a failed mutation.
func (l *Ledger) claimKey(ctx context.Context, key string) (func(), error) {
	if l.idempotency == nil || key == "" {
		return func() {}, nil
	}
	if err := l.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
		return nil, err
	}
	return func() { _ = l.idempotency.Delete(ctx, key) }, nil
}

func (l *Ledger) afterCommit(ctx context.Context, actorID int64, created Transaction) {
	if l.audit != nil {
		meta := map[string]any{
			"product_id": created.ProductID,
			"quantity":   created.Quantity,
			"note":       created.Note,
		}
		if created.Reference != nil {
			meta["ref_type"] = string(created.Reference.Type)
			meta["ref_id"] = created.Reference.ID.String()
		}
		err := l.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("inventory:%s", created.Type),
			Entity:   "inventory_tx",
			EntityID: fmt.Sprintf("%d", created.ID),
			Meta:     meta,
		})
		if err != nil {
			// The movement is already committed, so the trail gap is only
			// recoverable from logs.
			l.logger.Warn("audit record failed",
				slog.Int64("transaction_id", created.ID),
				slog.Any("error", err),
			)
		}
	}
	if l.metrics != nil {
		l.metrics.CountMovement(string(created.Type))
	}
	if l.cache != nil {
		l.cache.InvalidateLowStock(ctx)
	}
}
