package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/inventory"
)

// LowStockSource lists products at or below a stock threshold.
type LowStockSource interface {
	LowStock(ctx context.Context, threshold int) ([]inventory.ProductStock, error)
}

// NewLowStockScanHandler builds the handler for TaskLowStockScan. The scan
// warms the low stock cache and logs every product that needs reordering.
func NewLowStockScanHandler(source LowStockSource, threshold int, logger *slog.Logger) asynq.HandlerFunc {
	if threshold <= 0 {
		threshold = inventory.DefaultLowStockThreshold
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ScheduledPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		shortages, err := source.LowStock(ctx, threshold)
		if err != nil {
			return err
		}
		for _, item := range shortages {
			logger.Warn("low stock",
				"product_id", item.ProductID,
				"code", item.Code,
				"stock", item.Stock,
				"threshold", threshold,
			)
		}
		logger.Info("low stock scan finished", "shortages", len(shortages))
		return nil
	}
}
