package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserLookup is the slice of the user store the service needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type Config struct {
	Secret   string
	TokenTTL time.Duration
	// Bootstrap credentials accepted while the user table is empty, so a
	// fresh deployment can be administered before any user row exists.
	BootstrapEmail    string
	BootstrapPassword string
}

type Service struct {
	users UserLookup
	cfg   Config
}

func New(users UserLookup, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	return &Service{
		users: users,
		cfg:   cfg,
	}
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Login checks the credentials and mints a bearer token.
//
// Returns:
//   - string: signed HS256 JWT.
//   - error: auth.ErrInvalidCredentials on any mismatch; unknown email and
//     wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	const op = "service.auth.Login"

	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Bootstrap credentials only open an empty store; once a real
			// user row exists they stop working.
			if n, cerr := s.users.Count(ctx); cerr == nil && n == 0 && s.bootstrapMatch(email, password) {
				u := &domain.User{ID: 0, Email: email}
				token, err := s.mint(u)
				if err != nil {
					return "", nil, fmt.Errorf("%s: %w", op, err)
				}
				return token, u, nil
			}

			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.mint(user)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return token, user, nil
}

// VerifyToken parses and validates a bearer token.
//
// Returns:
//   - *Claims: the token claims when valid.
//   - error: auth.ErrInvalidToken otherwise.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	const op = "service.auth.VerifyToken"

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(s.cfg.Secret), nil
		},
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

func (s *Service) mint(u *domain.User) (string, error) {
	now := time.Now()

	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *Service) bootstrapMatch(email, password string) bool {
	if s.cfg.BootstrapEmail == "" || s.cfg.BootstrapPassword == "" {
		return false
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.BootstrapEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.BootstrapPassword)) == 1

	return emailOK && passOK
}
