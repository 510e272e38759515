package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

const bearerScheme = "bearer"

// Auth verifies the bearer token and attaches the caller's identity to the
// request context. Rejections return before next runs and never touch the
// user store.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.GuardRejectionsTotal.WithLabelValues("auth", "unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				reason := "token_invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "token_expired"
				}
				metrics.GuardRejectionsTotal.WithLabelValues("auth", reason).Inc()
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}

// bearerToken extracts <token> from "Bearer <token>". The scheme is
// case-insensitive; an empty token is treated as absent.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
