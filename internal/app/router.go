package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmapos/pharmapos/internal/auth"
	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/observability"
	"github.com/pharmapos/pharmapos/internal/sales/customers"
	"github.com/pharmapos/pharmapos/internal/sales/orders"
	"github.com/pharmapos/pharmapos/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   auth.Middleware
	UsersHandler     *users.Handler
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	OrdersHandler    *orders.Handler
	InventoryHandler *inventory.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.RequireRole(auth.RoleAdmin))
				r.Route("/users", params.UsersHandler.MountRoutes)
			})
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
			r.Route("/sales/orders", params.OrdersHandler.MountRoutes)
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		})
	})

	return r
}
