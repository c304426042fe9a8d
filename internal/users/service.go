package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort abstracts persistence for the service and its tests.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	List(ctx context.Context) ([]User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service wraps account management rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput describes a new account request.
type CreateInput struct {
	Email    string
	Name     string
	Role     string
	Password string
}

// Create hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return User{}, errors.New("users: email required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return User{}, errors.New("users: name required")
	}
	if !ValidRole(input.Role) {
		return User{}, errors.New("users: unknown role")
	}
	if len(input.Password) < 8 {
		return User{}, errors.New("users: password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		Email:        email,
		Name:         input.Name,
		Role:         input.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, errors.New("users: invalid id")
	}
	return s.repo.Get(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Deactivate disables an account.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("users: invalid id")
	}
	return s.repo.SetActive(ctx, id, false)
}
