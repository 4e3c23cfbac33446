// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set of roles is closed. There is deliberately NO privilege ordering
// between roles: route access is decided by set membership against an
// explicit allowed-roles list, never by rank comparison.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Can list contact records across all accounts
	RoleModerator Role = "moderator"

	// Default role for standard registered users
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the closed enum members.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	default:
		return false
	}
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
