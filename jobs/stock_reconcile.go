package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
)

// ProductLister pages through the product catalog.
type ProductLister interface {
	List(ctx context.Context, filters products.ListFilters) ([]products.Product, int, error)
}

// Reconciler compares a product's stored stock against its ledger sum.
type Reconciler interface {
	Reconcile(ctx context.Context, productID int64) (inventory.ReconciliationReport, error)
}

// DriftCounter accumulates the number of out-of-balance products found.
type DriftCounter interface {
	AddDrift(count int)
}

// NewStockReconcileHandler builds the handler for TaskStockReconcile. It walks
// the whole catalog and reports every product whose stored stock has drifted
// from the sum of its ledger entries. Drift means someone wrote to the stock
// column outside the ledger, so it is an error worth waking someone up for.
func NewStockReconcileHandler(catalog ProductLister, reconciler Reconciler, drift DriftCounter, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ScheduledPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		const pageSize = 200
		var checked, drifted int
		for page := 1; ; page++ {
			batch, _, err := catalog.List(ctx, products.ListFilters{Page: page, Limit: pageSize})
			if err != nil {
				return err
			}
			if len(batch) == 0 {
				break
			}
			for _, product := range batch {
				report, err := reconciler.Reconcile(ctx, product.ID)
				if err != nil {
					logger.Error("reconciliation failed", "product_id", product.ID, "error", err)
					continue
				}
				checked++
				if !report.Balanced() {
					drifted++
					if drift != nil {
						drift.AddDrift(1)
					}
					logger.Error("stock drift detected",
						"product_id", product.ID,
						"code", product.Code,
						"stock", report.Stock,
						"ledger_sum", report.LedgerSum,
						"drift", report.Drift,
					)
				}
			}
			if len(batch) < pageSize {
				break
			}
		}
		logger.Info("stock reconciliation finished", "checked", checked, "drifted", drifted)
		return nil
	}
}
