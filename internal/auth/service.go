package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pharmapos/pharmapos/internal/shared"
	"github.com/pharmapos/pharmapos/internal/users"
)

// Role names re-exported for route guards.
const (
	RoleAdmin      = users.RoleAdmin
	RolePharmacist = users.RolePharmacist
	RoleCashier    = users.RoleCashier
)

// UserSource fetches accounts for credential checks.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Claims carries the authenticated identity inside a JWT.
type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service wraps authentication business rules and token issuance.
type Service struct {
	repo   UserSource
	secret []byte
	ttl    time.Duration
}

// NewService constructs a new Service.
func NewService(repo UserSource, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a HS256 token for the user.
func (s *Service) IssueToken(user users.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ErrInvalidToken indicates a token which failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// VerifyToken parses and validates a signed token.
func (s *Service) VerifyToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
