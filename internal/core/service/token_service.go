package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/user-management/internal/core/domain"
)

const defaultTokenTTL = time.Hour

// tokenClaims is the JWT payload: sub carries the user id.
type tokenClaims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithIssuer sets the iss claim written on issue and required on verify.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithClock replaces the wall clock used for iat/exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for identity valid from now until now+TTL.
func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	if identity.UserID == "" || !identity.Role.Valid() {
		return "", fmt.Errorf("issue token: incomplete identity %+v", identity)
	}

	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: identity.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then expiry, then the claim shape.
func (s *TokenService) Verify(token string) (domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Identity{}, fmt.Errorf("%w: missing subject or role", domain.ErrTokenInvalid)
	}

	return domain.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
