package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pharmapos/pharmapos/internal/jobs"
)

// Instrument wraps a task handler with run, failure and duration metrics.
func Instrument(job string, metrics *jobmetrics.Metrics, handler asynq.HandlerFunc) asynq.HandlerFunc {
	if metrics == nil {
		return handler
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(job)
		return tracker.End(handler(ctx, t))
	}
}
