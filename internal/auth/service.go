// Package auth registers users, issues bearer tokens and resolves the owner
// behind a token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/serroba/shortlink/internal/apperr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretLength = 32
	tokenIDLength   = 21
	issuer          = "shortlink"
)

var errBadCredentials = errors.New("invalid username or password")

// Claims are the JWT claims of an access token. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Service authenticates users.
type Service struct {
	users      UserRepository
	secret     []byte
	ttl        time.Duration
	cost       int
	logger     *zap.Logger
	now        func() time.Time
	newTokenID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService creates an auth service. The secret must be at least 32 bytes.
func NewService(users UserRepository, secret string, ttl time.Duration, logger *zap.Logger, opts ...Option) (*Service, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}

	newTokenID, err := nanoid.Standard(tokenIDLength)
	if err != nil {
		return nil, fmt.Errorf("token id generator: %w", err)
	}

	s := &Service{
		users:      users,
		secret:     []byte(secret),
		ttl:        ttl,
		cost:       bcrypt.DefaultCost,
		logger:     logger,
		now:        time.Now,
		newTokenID: newTokenID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	const op = "auth.Register"

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, op, "username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, op, err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err = s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, &apperr.Error{Kind: apperr.KindConflict, Op: op, Msg: "Username already exists", Err: err}
		}

		return nil, tagged(op, err)
	}

	s.logger.Info("user registered", zap.String("username", username), zap.String("userId", user.ID))

	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return "", apperr.Wrap(apperr.KindUnauthorized, op, errBadCredentials)
	}

	if err != nil {
		return "", tagged(op, err)
	}

	if err = bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, op, errBadCredentials)
	}

	token, err := s.issue(user.Username)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, op, err)
	}

	s.logger.Debug("user logged in", zap.String("username", user.Username))

	return token, nil
}

func (s *Service) issue(username string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.newTokenID(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// OwnerFromToken validates a token and returns the username it was issued to.
// The user must still exist.
func (s *Service) OwnerFromToken(ctx context.Context, token string) (string, error) {
	const op = "auth.OwnerFromToken"

	if token == "" {
		return "", apperr.New(apperr.KindUnauthorized, op, "missing bearer token")
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.secret, nil
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, op, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return "", apperr.New(apperr.KindUnauthorized, op, "token is not valid")
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return "", apperr.Wrap(apperr.KindUnauthorized, op, err)
	}

	if err != nil {
		return "", tagged(op, err)
	}

	return user.Username, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return header
}

func tagged(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}

	return apperr.Wrap(apperr.KindInternal, op, err)
}
