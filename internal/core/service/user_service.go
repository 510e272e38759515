package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

const minPasswordLen = 6

type UserService struct {
	repo       ports.UserRepository
	audit      ports.AuditRecorder
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewUserService(repo ports.UserRepository, audit ports.AuditRecorder, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser hashes the password and stores a new user. The role defaults
// to USER. A duplicate email fails with domain.ErrUserExists and leaves the
// existing record untouched.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.UserMutationsTotal.WithLabelValues(string(domain.AuditUserCreated)).Inc()
	s.record(ctx, domain.AuditUserCreated, created.ID)
	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial update. A new password is re-hashed; an
// email already owned by another user fails with domain.ErrUserExists.
func (s *UserService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	patch := domain.UserPatch{UpdatedAt: s.now()}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", domain.ErrValidation)
		}
		patch.Email = &email
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, *in.Role)
		}
		role := *in.Role
		patch.Role = &role
	}

	if patch.Empty() {
		return s.GetUser(ctx, id)
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	metrics.UserMutationsTotal.WithLabelValues(string(domain.AuditUserUpdated)).Inc()
	s.record(ctx, domain.AuditUserUpdated, updated.ID)
	s.logger.Info().Str("user_id", updated.ID).Msg("user updated")
	return updated, nil
}

// DeleteUser removes the user and returns the record as it was.
func (s *UserService) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	metrics.UserMutationsTotal.WithLabelValues(string(domain.AuditUserDeleted)).Inc()
	s.record(ctx, domain.AuditUserDeleted, id)
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return user, nil
}

// EnsureAdmin creates an ADMIN account for email unless one with that email
// already exists. created reports whether a new account was stored.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (user *domain.User, created bool, err error) {
	existing, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			s.logger.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a non-admin account")
		}
		return existing, false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	user, err = s.CreateUser(ctx, ports.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *UserService) record(ctx context.Context, action domain.AuditAction, subjectID string) {
	if s.audit == nil {
		return
	}
	var actorID string
	if id, ok := domain.IdentityFromContext(ctx); ok {
		actorID = id.UserID
	}
	s.audit.Enqueue(domain.AuditEvent{
		Action:    action,
		ActorID:   actorID,
		SubjectID: subjectID,
		At:        s.now(),
	})
}
