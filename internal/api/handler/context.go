package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
)

// callerIdentity returns the identity attached by the Auth middleware. Its
// absence on a protected route is a wiring bug, not a client error.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return domain.Identity{}, domain.ErrMissingAuthContext
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Malformed JSON is reported as a validation error.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return c.Validate(req)
}
