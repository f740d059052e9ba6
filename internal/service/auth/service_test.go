package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

type fakeUsers struct {
	byEmail map[string]*domain.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}

	return u, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	return int64(len(f.byEmail)), nil
}

func newTestAuth(t *testing.T, cfg Config) (*Service, *fakeUsers) {
	t.Helper()

	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}

	users := &fakeUsers{byEmail: make(map[string]*domain.User)}

	return New(users, cfg), users
}

func addUser(t *testing.T, users *fakeUsers, email, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	users.byEmail[email] = &domain.User{
		ID:           int64(len(users.byEmail) + 1),
		Email:        email,
		PasswordHash: string(hash),
	}
}

func TestLoginAndVerifyRoundTrip(t *testing.T) {
	svc, users := newTestAuth(t, Config{})
	addUser(t, users, "staff@rodetes.com", "s3cret")

	token, user, err := svc.Login(context.Background(), "staff@rodetes.com", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "staff@rodetes.com", user.Email)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff@rodetes.com", claims.Email)
	assert.Equal(t, "1", claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, users := newTestAuth(t, Config{})
	addUser(t, users, "staff@rodetes.com", "s3cret")
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "staff@rodetes.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@rodetes.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBootstrapAdmin(t *testing.T) {
	svc, _ := newTestAuth(t, Config{
		BootstrapEmail:    "admin@rodetes.com",
		BootstrapPassword: "bootstrap-pass",
	})
	ctx := context.Background()

	token, user, err := svc.Login(ctx, "admin@rodetes.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.ID)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@rodetes.com", claims.Email)

	_, _, err = svc.Login(ctx, "admin@rodetes.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBootstrapClosesAfterFirstUser(t *testing.T) {
	svc, users := newTestAuth(t, Config{
		BootstrapEmail:    "admin@rodetes.com",
		BootstrapPassword: "bootstrap-pass",
	})
	addUser(t, users, "staff@rodetes.com", "s3cret")

	_, _, err := svc.Login(context.Background(), "admin@rodetes.com", "bootstrap-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBootstrapDisabledWithoutConfig(t *testing.T) {
	svc, _ := newTestAuth(t, Config{})

	_, _, err := svc.Login(context.Background(), "admin@rodetes.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsForgeries(t *testing.T) {
	svc, users := newTestAuth(t, Config{})
	addUser(t, users, "staff@rodetes.com", "s3cret")

	token, _, err := svc.Login(context.Background(), "staff@rodetes.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with a different secret.
	other := New(&fakeUsers{byEmail: users.byEmail}, Config{Secret: "other-secret"})
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Tokens must be HMAC-signed; alg none is refused outright.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "staff@rodetes.com"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc, users := newTestAuth(t, Config{TokenTTL: -time.Minute})
	addUser(t, users, "staff@rodetes.com", "s3cret")

	// TTL below zero falls back to the default at construction, so mint an
	// expired token by hand.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "staff@rodetes.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	raw, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
