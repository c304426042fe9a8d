package products

import (
	"context"
	"errors"
	"time"
)

var (
	errInvalidPrice = errors.New("products: price must be a non-negative decimal")
	errInvalidCost  = errors.New("products: cost must be a non-negative decimal")
	errInvalidID    = errors.New("products: invalid id")
)

// Service wraps product master rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns products matching the filters plus the unfiltered total.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, errInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Create validates the form and stores a new product with zero stock.
// Opening stock arrives through the inventory ledger, never here.
func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	product, err := form.ToProduct()
	if err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

// Update validates the form and overwrites the master data fields.
func (s *Service) Update(ctx context.Context, id int64, form ProductForm) error {
	if id <= 0 {
		return errInvalidID
	}
	product, err := form.ToProduct()
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

// Discontinue removes the product from the active assortment. Stock and
// ledger history stay untouched.
func (s *Service) Discontinue(ctx context.Context, id int64) error {
	if id <= 0 {
		return errInvalidID
	}
	return s.repo.SetStatus(ctx, id, StatusDiscontinued)
}

// Reactivate brings a discontinued product back.
func (s *Service) Reactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return errInvalidID
	}
	return s.repo.SetStatus(ctx, id, StatusActive)
}

// ListExpired returns active products past their expiry date with stock left.
func (s *Service) ListExpired(ctx context.Context, asOf time.Time) ([]Product, error) {
	return s.repo.ListExpired(ctx, asOf)
}
