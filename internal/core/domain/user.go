package domain

import (
	"errors"
	"time"
)

// Role is the authorization level carried by a user and its tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrValidation   = errors.New("validation failed")
)

// User models an account managed by the API.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the identity a token issued for u would carry.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
	UpdatedAt    time.Time
}

// Empty reports whether the patch changes nothing besides the timestamp.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Role == nil
}
