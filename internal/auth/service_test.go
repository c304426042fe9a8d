package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pharmapos/pharmapos/internal/shared"
	"github.com/pharmapos/pharmapos/internal/users"
)

type memoryUsers struct {
	byEmail map[string]users.User
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (users.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return user, nil
}

func seedUser(t *testing.T, email, password string, active bool) *memoryUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &memoryUsers{byEmail: map[string]users.User{
		email: {
			ID:           1,
			Email:        email,
			PasswordHash: string(hash),
			Role:         users.RolePharmacist,
			IsActive:     active,
		},
	}}
}

func TestAuthenticate(t *testing.T) {
	repo := seedUser(t, "apoteker@example.com", "s3cret-password", true)
	svc := NewService(repo, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "apoteker@example.com", "s3cret-password")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	_, err = svc.Authenticate(ctx, "apoteker@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := seedUser(t, "former@example.com", "s3cret-password", false)
	svc := NewService(repo, "test-secret", time.Hour)

	_, err := svc.Authenticate(context.Background(), "former@example.com", "s3cret-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)
	now := time.Now()

	token, err := svc.IssueToken(users.User{ID: 7, Email: "apoteker@example.com", Role: users.RolePharmacist}, now)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, users.RolePharmacist, claims.Role)
	require.Equal(t, "apoteker@example.com", claims.Subject)
}

func TestVerifyTokenRejectsBadInput(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)

	_, err := svc.VerifyToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, "other-secret", time.Hour)
	token, err := other.IssueToken(users.User{ID: 1}, time.Now())
	require.NoError(t, err)
	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Minute)

	token, err := svc.IssueToken(users.User{ID: 1}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
