package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

// UserHandler serves the /users resource. Role checks happen in the
// Authorize middleware before any of these run; the profile routes
// substitute the caller's own id for the path id.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "User to create"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Profile handles GET /users/profile.
//
// @Summary      Get the caller's own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}
	return h.get(c, caller.UserID)
}

// Get handles GET /users/:id.
//
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	return h.get(c, c.Param("id"))
}

// UpdateProfile handles PATCH /users/profile. A role in the payload is
// rejected with 403 so a caller cannot grant themselves ADMIN.
//
// @Summary      Update the caller's own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/profile [patch]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Role != nil {
		return domain.ErrForbidden
	}
	return h.update(c, caller.UserID, req)
}

// Update handles PATCH /users/:id.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.update(c, c.Param("id"), req)
}

// Delete handles DELETE /users/:id and returns the removed record.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	user, err := h.service.DeleteUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) get(c echo.Context, id string) error {
	user, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) update(c echo.Context, id string, req updateUserRequest) error {
	in := ports.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.service.UpdateUser(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
