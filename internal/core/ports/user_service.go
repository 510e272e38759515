package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// CreateUserInput carries all data needed to create a user. An empty Role
// defaults to USER.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserInput carries a partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService defines the use-case operations on users. Authorization has
// already happened by the time these are called; the acting identity is
// read from ctx only for the audit trail.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)
}
