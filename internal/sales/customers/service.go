package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	errInvalidID  = errors.New("customers: invalid id")
	errValidation = errors.New("customers: validation failed")
)

// Service wraps customer master rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string, page, limit int) ([]Customer, int, error) {
	return s.repo.List(ctx, search, page, limit)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, errInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the customer can be sold to.
func (s *Service) Exists(ctx context.Context, id int64) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s *Service) Create(ctx context.Context, customer Customer) (Customer, error) {
	if err := s.validate(customer); err != nil {
		return Customer{}, err
	}
	customer.IsActive = true
	return s.repo.Create(ctx, customer)
}

func (s *Service) Update(ctx context.Context, id int64, customer Customer) error {
	if id <= 0 {
		return errInvalidID
	}
	if err := s.validate(customer); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, customer)
}

func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: code is required", errValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", errValidation)
	}
	return nil
}
