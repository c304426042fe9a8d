package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/shared"
)

// ExpiredSource lists products whose expiry date has passed.
type ExpiredSource interface {
	ListExpired(ctx context.Context, asOf time.Time) ([]products.Product, error)
}

// ExpiredLedger posts expired write-off movements.
type ExpiredLedger interface {
	RecordExpired(ctx context.Context, input inventory.MovementInput) (inventory.Transaction, error)
}

// NewExpiredSweepHandler builds the handler for TaskExpiredSweep. For every
// expired product still holding stock it posts one write-off movement for the
// full remaining quantity. The idempotency key includes the sweep date, so a
// retried run never writes the same product off twice in one day.
func NewExpiredSweepHandler(source ExpiredSource, ledger ExpiredLedger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ScheduledPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Cron payloads are built once at worker start, so the run date
		// comes from the clock, not the payload.
		asOf := time.Now().UTC()
		expired, err := source.ListExpired(ctx, asOf)
		if err != nil {
			return err
		}
		var swept int
		for _, product := range expired {
			if product.Stock <= 0 {
				continue
			}
			_, err := ledger.RecordExpired(ctx, inventory.MovementInput{
				ProductID:      product.ID,
				Quantity:       product.Stock,
				Note:           fmt.Sprintf("expired on %s", product.ExpiresAt.Format("2006-01-02")),
				IdempotencyKey: fmt.Sprintf("expired:%d:%s", product.ID, asOf.Format("2006-01-02")),
			})
			if err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					continue
				}
				logger.Error("expired sweep write-off failed", "product_id", product.ID, "error", err)
				return err
			}
			swept++
			logger.Info("expired stock written off", "product_id", product.ID, "code", product.Code, "quantity", product.Stock)
		}
		logger.Info("expired sweep finished", "expired", len(expired), "swept", swept)
		return nil
	}
}
