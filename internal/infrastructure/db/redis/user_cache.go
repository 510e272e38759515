package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/user-management/internal/core/domain"
)

const defaultCacheTTL = 5 * time.Minute

// UserCache caches user records by id.
// Key format: user:<id>
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// cachedUser mirrors domain.User including the hash, which domain.User
// hides from JSON.
type cachedUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUserCache creates a UserCache wrapping the given Redis client.
func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &UserCache{client: client, ttl: ttl}
}

// Get returns the cached user, or nil, nil on a miss.
func (c *UserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("user cache get: %w", err)
	}

	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		return nil, fmt.Errorf("user cache decode: %w", err)
	}
	return &domain.User{
		ID:           cu.ID,
		Name:         cu.Name,
		Email:        cu.Email,
		PasswordHash: cu.PasswordHash,
		Role:         domain.Role(cu.Role),
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
	}, nil
}

// Set stores user for the configured TTL.
func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(cachedUser{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("user cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(user.ID), raw, c.ttl).Err()
}

// Delete evicts the cached user.
func (c *UserCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *UserCache) key(id string) string {
	return "user:" + id
}
