package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// UserCache abstracts the by-id user cache (Redis).
type UserCache interface {
	Get(ctx context.Context, id string) (*domain.User, error) // nil, nil on miss
	Set(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// cachedUserRepository serves FindByID from the cache and invalidates on
// writes. Cache failures are logged and fall through to the store.
type cachedUserRepository struct {
	ports.UserRepository
	cache UserCache
	log   zerolog.Logger
}

// NewCachedUserRepository wraps repo with a read-through by-id cache.
func NewCachedUserRepository(repo ports.UserRepository, cache UserCache, log zerolog.Logger) ports.UserRepository {
	return &cachedUserRepository{UserRepository: repo, cache: cache, log: log}
}

func (r *cachedUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	cached, err := r.cache.Get(ctx, id)
	switch {
	case err != nil:
		r.log.Warn().Err(err).Str("user_id", id).Msg("user cache read failed, using store")
	case cached != nil:
		metrics.UserCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.UserCacheTotal.WithLabelValues("miss").Inc()

	user, err := r.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, user); err != nil {
		r.log.Warn().Err(err).Str("user_id", id).Msg("user cache write failed")
	}
	return user, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	updated, err := r.UserRepository.Update(ctx, id, patch)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	r.invalidate(ctx, id)
	return updated, err
}

func (r *cachedUserRepository) Delete(ctx context.Context, id string) error {
	err := r.UserRepository.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	r.invalidate(ctx, id)
	return err
}

func (r *cachedUserRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn().Err(err).Str("user_id", id).Msg("user cache invalidation failed")
	}
}
