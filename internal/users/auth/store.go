// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import "context"

// UserRepository abstracts persistent account storage.
//
// Implementations map storage errors (no rows, unique violations) to
// [apperr.AppError] so the service layer never sees driver-level errors.
type UserRepository interface {
	// Create persists a new account and fills in the generated ID.
	Create(context context.Context, user *User) error

	// FindByEmail retrieves an account by its unique email address.
	FindByEmail(context context.Context, email string) (*User, error)

	// FindByID retrieves an account by its primary key.
	FindByID(context context.Context, id int64) (*User, error)

	// MarkConfirmed flips the account's confirmed flag to true.
	MarkConfirmed(context context.Context, id int64) error
}

// ConfirmationTokenRepository stores pending email-confirmation tokens.
//
// Tokens are single-use and expire server-side; implementations must key by
// token hash, never the raw token.
type ConfirmationTokenRepository interface {
	// Set associates a confirmation token with a user ID for the given TTL.
	Set(context context.Context, token string, userID int64) error

	// Get resolves a confirmation token back to the user ID it was issued for.
	Get(context context.Context, token string) (int64, error)

	// Delete removes a used or abandoned confirmation token.
	Delete(context context.Context, token string) error
}
