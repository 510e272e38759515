package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// TokenIssuer mints signed, time-bound bearer tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// TokenVerifier checks a bearer token and decodes the identity it carries.
// It fails with domain.ErrTokenInvalid or domain.ErrTokenExpired.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// CredentialVerifier checks an email/password pair against stored users.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error)
}

type AuthService interface {
	CredentialVerifier
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// RegisterInput carries a self-registration request. The role is always USER.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}
