package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/shared"
)

// DefaultIdempotencyRetention keeps claims long enough to absorb client
// retries while keeping the table small.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// NewIdempotencyCleanupHandler builds the handler for TaskIdempotencyCleanup.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ScheduledPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		removed, err := store.Cleanup(ctx, retention)
		if err != nil {
			return err
		}
		logger.Info("idempotency cleanup finished", "removed", removed)
		return nil
	}
}
