package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrForbidden          = errors.New("access forbidden")

	// ErrMissingAuthContext means a role check ran without the Auth guard in
	// front of it. It is a route wiring bug, not a client error.
	ErrMissingAuthContext = errors.New("authorization ran without an authenticated identity")
)

// Identity is the verified caller attached to a request by the Auth guard.
// It lives only for the duration of one request.
type Identity struct {
	UserID string
	Role   Role
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
