package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan refreshes the low stock report and flags shortages.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskExpiredSweep writes off stock of products past their expiry date.
	TaskExpiredSweep = "inventory:expired_sweep"
	// TaskStockReconcile checks stored balances against the ledger sum.
	TaskStockReconcile = "inventory:stock_reconcile"
	// TaskIdempotencyCleanup prunes old idempotency claims.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ScheduledPayload carries scheduling metadata shared by the cron tasks.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs the low stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskLowStockScan, at)
}

// NewExpiredSweepTask constructs the expired stock sweep task.
func NewExpiredSweepTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskExpiredSweep, at)
}

// NewStockReconcileTask constructs the reconciliation task.
func NewStockReconcileTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskStockReconcile, at)
}

// NewIdempotencyCleanupTask constructs the idempotency cleanup task.
func NewIdempotencyCleanupTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskIdempotencyCleanup, at)
}

func newScheduledTask(taskType string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault)), nil
}
