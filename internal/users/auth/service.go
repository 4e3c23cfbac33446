// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

/*
Package auth implements the identity and access management core of Kontakta.

It handles account registration with email confirmation, credential
verification, and the full session lifecycle: issuing access/refresh JWT
pairs, rotating them, and revoking them through a shared Redis denylist.

Architecture:

  - Service: Orchestrates business logic (Signup, Login, Refresh, Logout).
  - Repository: Abstracted interfaces for Postgres (Users) and Redis (Tokens).
  - Security: Bcrypt password hashing and HMAC-signed JWTs via [sec].

The package also provides the identity resolver consulted by the HTTP
pipeline on every authenticated request.
*/
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/sec"
)

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, signup,
// or login logic must be reviewed before merging.
type Service struct {
	userRepository    UserRepository
	confirmRepository ConfirmationTokenRepository
	tokens            *sec.TokenService
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	confirmRepo ConfirmationTokenRepository,
	tokens *sec.TokenService,
) *Service {
	return &Service{
		userRepository:    userRepo,
		confirmRepository: confirmRepo,
		tokens:            tokens,
	}
}

// # Registration Flow

// SignupInput holds the data required to enroll a new account.
type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
Signup validates, hashes, and persists a brand new account.

Description: New accounts start unconfirmed with the base user role; a
confirmation token is generated and stored for the email round trip.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *User: Created entity
  - error: Conflict (if the email is taken) or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*User, error) {

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during signup spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleUser,
		Confirmed:    false,
	}

	// Persist the account. The unique index on email is the conflict authority,
	// so there is no racy pre-check lookup here.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Generate and store a confirmation token as an async-ready side effect
	token, err := sec.GenerateSecureToken(ConfirmTokenLength)
	if err == nil {
		_ = service.confirmRepository.Set(context, token, user.ID)
		// TODO: Trigger email service with the confirmation link
	}

	return user, nil
}

/*
ConfirmEmail activates an account using a confirmation token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: NotFound when the token is invalid or expired, or storage errors
*/
func (service *Service) ConfirmEmail(context context.Context, token string) error {

	userID, err := service.confirmRepository.Get(context, token)
	if err != nil {
		return err
	}

	if err := service.userRepository.MarkConfirmed(context, userID); err != nil {
		return fmt.Errorf("auth_service_confirm_email_failed: %w", err)
	}

	// Cleanup the used confirmation token
	_ = service.confirmRepository.Delete(context, token)

	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates credentials and issues a fresh token pair.

Description: Performs constant-time password comparison and refuses
unconfirmed accounts with a distinct 403 so clients can prompt for the
confirmation email instead of a password retry.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *sec.TokenPair: Signed credentials
  - *User: Authenticated account
  - error: Unauthorized, Forbidden (unconfirmed), or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*sec.TokenPair, *User, error) {

	user, err := service.userRepository.FindByEmail(context, input.Email)

	// If (err != nil) the account does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !user.Confirmed {
		return nil, nil, apperr.Forbidden("Email address is not confirmed")
	}

	pair, err := service.tokens.Issue(user.Identity())
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return pair, user, nil
}

/*
Refresh implements the refresh token rotation mechanism.

Description: Verifies the presented refresh token, revokes it to prevent
reuse (replay attack mitigation), reloads the account, and issues a fresh
rotated pair.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *sec.TokenPair: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*sec.TokenPair, error) {

	claims, err := service.tokens.Verify(context, refreshToken, sec.KindRefresh)
	if err != nil {
		if errors.Is(err, sec.ErrTokenInvalid) || errors.Is(err, sec.ErrTokenRevoked) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("auth_service_refresh_verify_failed: %w", err)
	}

	// Rotation: revoke the old refresh token before issuing the new pair
	if err := service.tokens.Revoke(context, refreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	// Reload the account so role or confirmation changes take effect immediately
	user, err := service.userRepository.FindByEmail(context, claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	if !user.Confirmed {
		return nil, apperr.Forbidden("Email address is not confirmed")
	}

	pair, err := service.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_issue_failed: %w", err)
	}

	return pair, nil
}

/*
Logout revokes the presented access token.

Description: The token lands in the shared denylist for the remainder of its
lifetime, so it is rejected on every replica immediately. Logging out with an
already-expired token succeeds (idempotent operation).

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - error: Unauthorized for unparseable tokens, or denylist write failures
*/
func (service *Service) Logout(context context.Context, accessToken string) error {

	if err := service.tokens.Revoke(context, accessToken); err != nil {
		if errors.Is(err, sec.ErrTokenInvalid) {
			return apperr.Unauthorized("Invalid token")
		}
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

// # Identity Resolution

/*
ResolveAccessToken verifies an access token and loads the acting user.

Description: This is the pipeline's identity resolver — it runs on every
authenticated request. The full account record is reloaded by the token's
subject so stale claims (changed role, deleted or unconfirmed account)
never grant access.

Parameters:
  - context: context.Context
  - accessToken: string

Returns:
  - *sec.Identity: Resolved acting user
  - error: apperr.Unauthorized for every auth failure, Internal otherwise
*/
func (service *Service) ResolveAccessToken(context context.Context, accessToken string) (*sec.Identity, error) {

	claims, err := service.tokens.Verify(context, accessToken, sec.KindAccess)
	if err != nil {
		if errors.Is(err, sec.ErrTokenInvalid) || errors.Is(err, sec.ErrTokenRevoked) {
			return nil, apperr.Unauthorized("Invalid or expired token")
		}
		// Denylist store failure: fail closed as an internal error
		return nil, apperr.Internal(err)
	}

	user, err := service.userRepository.FindByEmail(context, claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	if !user.Confirmed {
		return nil, apperr.Unauthorized("Email address is not confirmed")
	}

	identity := user.Identity()
	return &identity, nil
}
