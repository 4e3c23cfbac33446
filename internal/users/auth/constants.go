// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import "time"

// # Token Lifetimes

const (
	// AccessTokenTTL is the lifetime of the short-lived access token.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of the long-lived refresh token.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// # Email Confirmation

const (
	// ConfirmTokenTTL is how long a confirmation link stays valid.
	ConfirmTokenTTL = 24 * time.Hour

	// ConfirmTokenLength is the byte length of the random confirmation token.
	ConfirmTokenLength = 32
)
