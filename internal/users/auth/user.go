// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import (
	"time"

	"github.com/vberko/kontakta/internal/platform/sec"
)

// User represents a registered Kontakta account.
//
// # Security
//
// PasswordHash is never serialized to JSON. The entity crossing the HTTP
// boundary is always this struct, so the json:"-" tag is the single gate.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         sec.Role  `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the account into the platform-level identity carried in
// request contexts and embedded in token claims.
func (user *User) Identity() sec.Identity {
	return sec.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Confirmed:   user.Confirmed,
	}
}

// # Field Names (JSON / validation keys)

const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldToken       = "token"
	FieldMessage     = "message"
)
