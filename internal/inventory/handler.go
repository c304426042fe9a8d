package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pharmapos/pharmapos/internal/auth"
	"github.com/pharmapos/pharmapos/internal/platform/httpx"
	"github.com/pharmapos/pharmapos/internal/shared"
)

// SweepTrigger queues an immediate expired stock sweep on the worker.
type SweepTrigger interface {
	EnqueueExpiredSweep(ctx context.Context, at time.Time) error
}

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger *slog.Logger
	ledger *Ledger
	query  *Query
	sweeps SweepTrigger
	authz  auth.Middleware
}

// NewHandler constructs the inventory handler. The sweep trigger is optional;
// without it the manual sweep endpoint reports the queue as unavailable.
func NewHandler(logger *slog.Logger, ledger *Ledger, query *Query, sweeps SweepTrigger, authz auth.Middleware) *Handler {
	return &Handler{logger: logger, ledger: ledger, query: query, sweeps: sweeps, authz: authz}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
		r.Post("/stock-in", h.handleStockIn)
		r.Post("/stock-out", h.handleStockOut)
		r.Post("/returns", h.handleReturn)
		r.Post("/adjustments", h.handleAdjustment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(auth.RoleAdmin))
		r.Post("/expired", h.handleExpired)
		r.Post("/expired/sweep", h.handleExpiredSweep)
	})
	r.Get("/transactions", h.handleListTransactions)
	r.Get("/transactions/{id}", h.handleGetTransaction)
	r.Get("/products/{productID}/history", h.handleHistory)
	r.Get("/products/{productID}/reconciliation", h.handleReconcile)
	r.Get("/references/{type}/{id}", h.handleByReference)
	r.Get("/low-stock", h.handleLowStock)
}

type movementRequest struct {
	ProductID     int64  `json:"product_id"`
	Quantity      int    `json:"quantity"`
	Note          string `json:"note"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

type adjustmentRequest struct {
	ProductID int64  `json:"product_id"`
	NewLevel  int    `json:"new_level"`
	Note      string `json:"note"`
}

type transactionResponse struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"product_id"`
	Type          string `json:"type"`
	Quantity      int    `json:"quantity"`
	Note          string `json:"note,omitempty"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toTransactionResponse(entry Transaction) transactionResponse {
	resp := transactionResponse{
		ID:        entry.ID,
		ProductID: entry.ProductID,
		Type:      string(entry.Type),
		Quantity:  entry.Quantity,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.Reference != nil {
		resp.ReferenceType = string(entry.Reference.Type)
		resp.ReferenceID = entry.Reference.ID.String()
	}
	return resp
}

func toTransactionResponses(entries []Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toTransactionResponse(entry))
	}
	return out
}

func (h *Handler) handleStockIn(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.ledger.RecordStockIn)
}

func (h *Handler) handleStockOut(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.ledger.RecordStockOut)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.ledger.RecordReturn)
}

func (h *Handler) handleExpired(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.ledger.RecordExpired)
}

// handleExpiredSweep queues a full expired stock sweep right away instead of
// waiting for the nightly schedule, e.g. after a bulk product import.
func (h *Handler) handleExpiredSweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeps == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Sweep Unavailable", "job queue not configured")
		return
	}
	if err := h.sweeps.EnqueueExpiredSweep(r.Context(), time.Now().UTC()); err != nil {
		h.logger.Error("enqueue expired sweep", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Sweep Not Queued", "could not reach the job queue")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type movementFn func(ctx context.Context, input MovementInput) (Transaction, error)

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request, post movementFn) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed json")
		return
	}
	input := MovementInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		Note:           req.Note,
		ActorID:        auth.ActorID(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if req.ReferenceType != "" || req.ReferenceID != "" {
		refType, err := ParseReferenceType(req.ReferenceType)
		if err != nil {
			h.respondError(w, err)
			return
		}
		refID, err := uuid.Parse(req.ReferenceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Reference", "reference id must be a uuid")
			return
		}
		ref, err := NewReference(refType, refID)
		if err != nil {
			h.respondError(w, err)
			return
		}
		input.Reference = &ref
	}
	created, err := post(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed json")
		return
	}
	created, err := h.ledger.AdjustStock(r.Context(), AdjustmentInput{
		ProductID:      req.ProductID,
		NewLevel:       req.NewLevel,
		Note:           req.Note,
		ActorID:        auth.ActorID(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(created))
}

// handleListTransactions serves the latest feed, or a date-range filter when
// from/to query params are present.
func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw != "" || toRaw != "" {
		from, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "from must be RFC3339")
			return
		}
		to, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must be RFC3339")
			return
		}
		entries, err := h.query.ByDateRange(r.Context(), from, to)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, toTransactionResponses(entries))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.query.Latest(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "transaction id must be numeric")
		return
	}
	entry, err := h.query.ByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(entry))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	entries, err := h.query.ProductHistory(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	report, err := h.query.Reconcile(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleByReference(w http.ResponseWriter, r *http.Request) {
	refType, err := ParseReferenceType(chi.URLParam(r, "type"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	refID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Reference", "reference id must be a uuid")
		return
	}
	entries, err := h.query.ByReference(r.Context(), Reference{Type: refType, ID: refID})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponses(entries))
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.Atoi(r.URL.Query().Get("threshold"))
	items, err := h.query.LowStock(r.Context(), threshold)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":      "Insufficient Stock",
			"status":     http.StatusConflict,
			"detail":     insufficient.Error(),
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrTransactionNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrNegativeStock),
		errors.Is(err, ErrUnknownTransactionType), errors.Is(err, ErrUnknownReferenceType),
		errors.Is(err, ErrProductRequired), errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrReferenceIDRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
