package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmapos/pharmapos/internal/inventory"
	"github.com/pharmapos/pharmapos/internal/masterdata/products"
	"github.com/pharmapos/pharmapos/internal/shared"
)

var (
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrProductUnavailable = errors.New("product is discontinued")
)

// CustomerSource verifies that the order's customer exists.
type CustomerSource interface {
	Exists(ctx context.Context, id int64) error
}

// ProductSource resolves order lines to priced products.
type ProductSource interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// LedgerPort posts the stock-out side of fulfillment.
type LedgerPort interface {
	RecordSale(ctx context.Context, input inventory.MovementInput) (inventory.Transaction, error)
}

type Service struct {
	repo      Repository
	customers CustomerSource
	products  ProductSource
	ledger    LedgerPort
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerSource, products ProductSource, ledger LedgerPort) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		ledger:    ledger,
		now:       time.Now,
	}
}

// Create registers a draft order. Prices come from the product master, so a
// draft fixes the price at creation time even if the catalog changes later.
func (s *Service) Create(ctx context.Context, form CreateOrderForm, createdBy int64) (*SalesOrder, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}
	if err := s.customers.Exists(ctx, form.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	lines := make([]SalesOrderLine, 0, len(form.Lines))
	subtotal := decimal.Zero
	for _, lineForm := range form.Lines {
		product, err := s.products.Get(ctx, lineForm.ProductID)
		if err != nil {
			return nil, fmt.Errorf("verify product %d: %w", lineForm.ProductID, err)
		}
		if product.Discontinued() {
			return nil, fmt.Errorf("product %s: %w", product.Code, ErrProductUnavailable)
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(lineForm.Quantity)))
		lines = append(lines, SalesOrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    lineForm.Quantity,
			UnitPrice:   product.Price,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	order := SalesOrder{
		OrderUID:   uuid.New(),
		CustomerID: form.CustomerID,
		Status:     SalesOrderStatusDraft,
		Subtotal:   subtotal,
		Total:      subtotal,
		Notes:      form.Notes,
		CreatedBy:  createdBy,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, s.now())
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		order.DocNumber = docNumber

		id, err := repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id
		for i := range lines {
			lines[i].SalesOrderID = id
			lineID, err := repo.InsertLine(ctx, lines[i])
			if err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
			lines[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// Fulfill issues every line from stock and completes the order. Each line
// posts its own ledger movement keyed by doc number and line id, so a retry
// after a partial failure skips lines that already went through.
func (s *Service) Fulfill(ctx context.Context, id int64, actorID int64) (*SalesOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != SalesOrderStatusDraft {
		return nil, fmt.Errorf("fulfill %s order: %w", order.Status, ErrInvalidStatus)
	}

	for _, line := range order.Lines {
		_, err := s.ledger.RecordSale(ctx, inventory.MovementInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Note:      fmt.Sprintf("sales order %s", order.DocNumber),
			Reference: &inventory.Reference{
				Type: inventory.ReferenceSalesOrder,
				ID:   order.OrderUID,
			},
			ActorID:        actorID,
			IdempotencyKey: fmt.Sprintf("so:%s:%d", order.DocNumber, line.ID),
		})
		if err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, fmt.Errorf("issue line %d: %w", line.ID, err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, SalesOrderStatusCompleted); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel voids a draft. Completed orders are corrected through a return
// movement on the ledger, never by cancellation.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != SalesOrderStatusDraft {
		return fmt.Errorf("cancel %s order: %w", order.Status, ErrInvalidStatus)
	}
	return s.repo.UpdateStatus(ctx, id, SalesOrderStatusCancelled)
}

func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]SalesOrder, error) {
	return s.repo.List(ctx, filters)
}
