package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clouddrive/internal/domain"
)

// UserStore is the slice of the metadata store the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type Service struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	log      *slog.Logger
}

func NewService(users UserStore, secret []byte, tokenTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register creates a user and returns a freshly issued access token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ValidationError("username and password are required")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", domain.InternalError("failed to look up user", err)
	}
	if existing != nil {
		return "", domain.ConflictError("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.InternalError("failed to hash password", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "user",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", domain.InternalError("failed to create user", err)
	}

	s.log.Info("user registered", "username", username)
	return s.issueToken(username)
}

// Login verifies credentials and returns an access token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", domain.InternalError("failed to look up user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.UnauthorizedError("invalid credentials")
	}

	return s.issueToken(username)
}

func (s *Service) issueToken(username string) (string, error) {
	token, err := GenerateToken(username, s.secret, s.tokenTTL)
	if err != nil {
		return "", domain.InternalError("failed to issue token", err)
	}
	return token, nil
}

// PrincipalFromToken resolves a bearer token to the acting principal,
// re-reading the user so role changes take effect on the next request.
func (s *Service) PrincipalFromToken(ctx context.Context, token string) (domain.Principal, error) {
	username, err := ParseToken(token, s.secret)
	if err != nil {
		return domain.Principal{}, domain.UnauthorizedError("invalid or expired token")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.Principal{}, domain.InternalError("failed to look up user", err)
	}
	if user == nil {
		return domain.Principal{}, domain.UnauthorizedError("invalid or expired token")
	}

	return user.Principal(), nil
}
