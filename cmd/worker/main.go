package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/app"
	"github.com/pharmapos/pharmapos/internal/inventory"
	jobmetrics "github.com/pharmapos/pharmapos/internal/jobs"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/platform/cache"
	"github.com/pharmapos/pharmapos/internal/platform/db"
	"github.com/pharmapos/pharmapos/internal/shared"
	"github.com/pharmapos/pharmapos/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	metrics := jobmetrics.NewMetrics(nil)
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	lowStockCache := inventory.NewLowStockCache(redisClient, cfg.LowStockCacheTTL)
	inventoryRepo := inventory.NewRepository(pool)
	ledger := inventory.NewLedger(logger, inventoryRepo, auditLogger, idempotency, lowStockCache, nil)
	inventoryQuery := inventory.NewQuery(inventoryRepo, lowStockCache)

	productRepo := products.NewRepository(pool)

	now := time.Now().UTC()
	lowStockTask, err := jobs.NewLowStockScanTask(now)
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	expiredTask, err := jobs.NewExpiredSweepTask(now)
	if err != nil {
		logger.Error("build expired sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	reconcileTask, err := jobs.NewStockReconcileTask(now)
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(now)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: jobs.Instrument("low_stock_scan", metrics,
				jobs.NewLowStockScanHandler(inventoryQuery, cfg.LowStockThreshold, logger))},
			{Type: jobs.TaskExpiredSweep, Handler: jobs.Instrument("expired_sweep", metrics,
				jobs.NewExpiredSweepHandler(productRepo, ledger, logger))},
			{Type: jobs.TaskStockReconcile, Handler: jobs.Instrument("stock_reconcile", metrics,
				jobs.NewStockReconcileHandler(productRepo, inventoryQuery, metrics, logger))},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.Instrument("idempotency_cleanup", metrics,
				jobs.NewIdempotencyCleanupHandler(idempotency, cfg.IdempotencyRetention, logger))},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 1 * * *", Task: expiredTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 1 * * *", Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * 0", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
