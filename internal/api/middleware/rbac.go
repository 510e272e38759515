package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

// Authorize enforces the role requirement registered for route in
// domain.RoutePolicies. It panics when the route has no policy so that a
// wiring mistake fails at startup rather than on the first request.
func Authorize(route domain.RouteID) echo.MiddlewareFunc {
	req, err := domain.PolicyFor(route)
	if err != nil {
		panic(err)
	}
	return RequireRoles(req)
}

// RequireRoles must run after Auth. A request without an identity is a
// misconfigured route and yields domain.ErrMissingAuthContext.
func RequireRoles(req domain.RoleRequirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, found := domain.IdentityFromContext(c.Request().Context())
			if err := domain.Authorize(identity, found, req); err != nil {
				reason := "forbidden"
				if errors.Is(err, domain.ErrMissingAuthContext) {
					reason = "misconfigured"
				}
				metrics.GuardRejectionsTotal.WithLabelValues("role", reason).Inc()
				return err
			}
			return next(c)
		}
	}
}
