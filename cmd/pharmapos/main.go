package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmapos/pharmapos/internal/app"
	"github.com/pharmapos/pharmapos/internal/auth"
	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/observability"
	"github.com/pharmapos/pharmapos/internal/platform/cache"
	"github.com/pharmapos/pharmapos/internal/platform/db"
	"github.com/pharmapos/pharmapos/internal/sales/customers"
	"github.com/pharmapos/pharmapos/internal/sales/orders"
	"github.com/pharmapos/pharmapos/internal/shared"
	"github.com/pharmapos/pharmapos/internal/users"
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
		logger.Warn("redis unavailable, low stock cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	authz := auth.Middleware{Service: authService, Logger: logger}

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)

	lowStockCache := inventory.NewLowStockCache(redisClient, cfg.LowStockCacheTTL)
	inventoryRepo := inventory.NewRepository(pool)
	ledger := inventory.NewLedger(logger, inventoryRepo, auditLogger, idempotency, lowStockCache, metrics)
	inventoryQuery := inventory.NewQuery(inventoryRepo, lowStockCache)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, customerService, productService, ledger)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = jobClient.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      auth.NewHandler(logger, authService),
		AuthMiddleware:   authz,
		UsersHandler:     users.NewHandler(logger, userService),
		ProductsHandler:  products.NewHandler(logger, productService, authz),
		CustomersHandler: customers.NewHandler(logger, customerService, authz),
		OrdersHandler:    orders.NewHandler(logger, orderService, customerService, authz),
		InventoryHandler: inventory.NewHandler(logger, ledger, inventoryQuery, jobClient, authz),
		Pool:             pool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
