package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// dummyHash is compared against when the email is unknown so that a miss
// costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// AuthService implements credential verification, login and registration.
type AuthService struct {
	repo   ports.UserRepository
	tokens ports.TokenIssuer
	users  ports.UserService
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, users ports.UserService, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, users: users, log: log}
}

// VerifyCredentials returns the user owning email when password matches.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies the credentials and issues a bearer token for the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
	return token, user, nil
}

// Register creates a USER account for an unauthenticated caller.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.users.CreateUser(ctx, ports.CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     domain.RoleUser,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
