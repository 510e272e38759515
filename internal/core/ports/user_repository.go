package ports

import (
	"context"

	"github.com/99minutos/user-management/internal/core/domain"
)

// UserRepository defines the persistence operations for user accounts.
//
// Create and Update return domain.ErrUserExists when the email is already
// taken; lookups, Update and Delete return domain.ErrUserNotFound when no
// user matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
