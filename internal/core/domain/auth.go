package domain

import (
	"fmt"
	"time"
)

// Role grants access to a class of HTTP surfaces
type Role string

const (
	// RoleAdmin may trigger and cancel jobs and manage schedules, indexes and documents
	RoleAdmin Role = "admin"
	// RoleReader may only query the retrieval surfaces
	RoleReader Role = "reader"
)

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleReader
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", NewValidationError("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// Principal identifies the holder of a verified API token
type Principal struct {
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the principal has the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanRead reports whether the principal may use the retrieval surfaces.
func (p *Principal) CanRead() bool {
	return p != nil && p.Role.IsValid()
}
