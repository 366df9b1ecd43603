// Package models defines the core data structures exchanged with the
// expedientes service: users, records (expedientes), their evidence items
// (indicios), list pages and filters.
package models

import "strings"

// Role is the authorization role carried by a user.
type Role string

const (
	// RoleTecnico manages only the records assigned to them.
	RoleTecnico Role = "tecnico"
	// RoleCoordinador approves records and administers users.
	RoleCoordinador Role = "coordinador"
)

// Valid reports whether r is one of the roles known to the service.
func (r Role) Valid() bool {
	return r == RoleTecnico || r == RoleCoordinador
}

// ParseRole normalizes s into a Role. The second result is false for
// unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is the identity issued by the service on login.
type User struct {
	// ID is the numeric identifier of the user.
	ID int64 `json:"id"`
	// Username is the login name.
	Username string `json:"username"`
	// Role is the user's authorization role.
	Role Role `json:"rol"`
}

// LoginCredentials is the body of POST /auth/login.
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the payload returned by a successful login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
