package domain

import "fmt"

// RouteID names a protected operation in the route policy table.
type RouteID string

const (
	RouteCreateUser    RouteID = "users.create"
	RouteListUsers     RouteID = "users.list"
	RouteGetProfile    RouteID = "users.profile.get"
	RouteGetUser       RouteID = "users.get"
	RouteUpdateProfile RouteID = "users.profile.update"
	RouteUpdateUser    RouteID = "users.update"
	RouteDeleteUser    RouteID = "users.delete"
)

// RoleRequirement lists the roles allowed to invoke a route. An empty list
// admits any authenticated caller.
type RoleRequirement struct {
	AllowedRoles []Role
}

// AnyAuthenticated admits every verified identity.
var AnyAuthenticated = RoleRequirement{}

// AdminOnly admits only ADMIN.
var AdminOnly = RoleRequirement{AllowedRoles: []Role{RoleAdmin}}

// RoutePolicies is the per-route authorization table consulted by the
// Role guard. Self routes ("profile") are open to any role because the
// handler substitutes the caller's own id.
var RoutePolicies = map[RouteID]RoleRequirement{
	RouteCreateUser:    AdminOnly,
	RouteListUsers:     AdminOnly,
	RouteGetProfile:    AnyAuthenticated,
	RouteGetUser:       AdminOnly,
	RouteUpdateProfile: AnyAuthenticated,
	RouteUpdateUser:    AdminOnly,
	RouteDeleteUser:    AdminOnly,
}

// PolicyFor returns the requirement registered for route.
func PolicyFor(route RouteID) (RoleRequirement, error) {
	req, ok := RoutePolicies[route]
	if !ok {
		return RoleRequirement{}, fmt.Errorf("no policy registered for route %q", route)
	}
	return req, nil
}

// Allows reports whether role satisfies the requirement. Membership is an
// exact match; ADMIN does not implicitly satisfy a USER-only requirement.
func (r RoleRequirement) Allows(role Role) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize checks an identity attached by the Auth guard against req.
// found=false means the guard never ran for this route.
func Authorize(id Identity, found bool, req RoleRequirement) error {
	if !found {
		return ErrMissingAuthContext
	}
	if !req.Allows(id.Role) {
		return ErrForbidden
	}
	return nil
}
