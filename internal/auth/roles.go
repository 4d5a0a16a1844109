package auth

import "strings"

// Role represents an admin role for role-based access control
type Role string

const (
	// RoleAdmin can change the model registry
	RoleAdmin Role = "admin"

	// RoleViewer can read configs, health and run reviews
	RoleViewer Role = "viewer"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role has permission for a required role.
// Admin has all permissions, viewer only has viewer permissions.
func (r Role) HasPermission(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// ParseRoles splits a comma separated role list, dropping blanks
func ParseRoles(s string) []string {
	var roles []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}
