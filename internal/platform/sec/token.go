// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, the
// token denylist contract) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer.
package sec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Token Taxonomy

// TokenKind distinguishes the two token types issued per session.
type TokenKind string

const (
	// KindAccess is the short-lived token presented on every API call.
	KindAccess TokenKind = "access"

	// KindRefresh is the long-lived token used only to rotate the pair.
	KindRefresh TokenKind = "refresh"
)

// Sentinel errors returned by [TokenService.Verify].
//
// Callers map these to 401 responses; any other error is a dependency
// failure and must surface as an internal error instead.
var (
	// ErrTokenInvalid covers bad signatures, expiry, and kind mismatches.
	ErrTokenInvalid = errors.New("sec: token invalid")

	// ErrTokenRevoked means the token passed cryptographic checks but is denylisted.
	ErrTokenRevoked = errors.New("sec: token revoked")
)

// Claims is the payload embedded inside every Kontakta JWT.
//
// Subject carries the user email (the login key); uid and rol are duplicated
// so the pipeline can log and gate without a claims-to-user roundtrip, but the
// identity resolver always reloads the full account record by Subject.
type Claims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	Kind   string `json:"knd"`
	UserID int64  `json:"uid"`
	Role   string `json:"rol"`
}

// Denylist is the negative token check consulted on every Verify.
//
// Entries self-expire: Add is always called with the token's remaining
// lifetime, so the set never grows beyond the live token population.
// The implementation must be shared across replicas (Redis).
type Denylist interface {
	Add(context context.Context, token string, ttl time.Duration) error
	Contains(context context.Context, token string) (bool, error)
}

// TokenPair is the result of issuing credentials for a user.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// # Token Service

// TokenService signs, verifies, and revokes HMAC JWTs.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   Denylist
}

// NewTokenService validates the configured signing algorithm and returns a
// ready service.
//
// Only HS256 and HS512 are accepted; anything else is a configuration error
// and fails fast at startup.
func NewTokenService(secret, algorithm string, accessTTL, refreshTTL time.Duration, denylist Denylist, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("sec: unsupported signing algorithm %q (must be HS256 or HS512)", algorithm)
	}

	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		denylist:   denylist,
	}, nil
}

/*
Issue signs a fresh access/refresh pair for the given identity.

Description: Both tokens share Subject (email), uid, and rol claims but carry
distinct knd claims and TTLs so neither can stand in for the other.

Parameters:
  - identity: Identity

Returns:
  - *TokenPair: Signed credentials
  - error: Signing failures
*/
func (service *TokenService) Issue(identity Identity) (*TokenPair, error) {
	now := time.Now()

	accessExpiry := now.Add(service.accessTTL)
	accessToken, err := service.sign(identity, KindAccess, now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	refreshExpiry := now.Add(service.refreshTTL)
	refreshToken, err := service.sign(identity, KindRefresh, now, refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

/*
Verify checks a token's signature, expiry, kind claim, and denylist state.

Description: A token that passes every cryptographic check but appears in the
denylist is still rejected — revocation always wins.

Parameters:
  - context: context.Context
  - tokenString: string
  - kind: TokenKind (expected knd claim)

Returns:
  - *Claims: Verified payload
  - error: ErrTokenInvalid, ErrTokenRevoked, or denylist store failures
*/
func (service *TokenService) Verify(context context.Context, tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := service.parse(tokenString, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Kind != string(kind) {
		return nil, fmt.Errorf("%w: kind claim mismatch", ErrTokenInvalid)
	}

	revoked, err := service.denylist.Contains(context, HashToken(tokenString))
	if err != nil {
		// Store failure: fail the request as an internal error, never as a
		// silent pass. A dead denylist must not re-admit revoked tokens.
		return nil, fmt.Errorf("sec: denylist check failed: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

/*
Revoke inserts a token into the denylist for the remainder of its lifetime.

Description: The TTL equals the token's remaining validity, so entries expire
exactly when the token would have anyway and the denylist stays bounded.
Revoking an already-expired token is a no-op.

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - error: Signature failures or denylist write failures
*/
func (service *TokenService) Revoke(context context.Context, tokenString string) error {
	// Claims validation is skipped so an expired-but-genuine token can still
	// be revoked idempotently. The signature check stays mandatory.
	claims, err := service.parse(tokenString, false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: missing expiry claim", ErrTokenInvalid)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	if err := service.denylist.Add(context, HashToken(tokenString), remaining); err != nil {
		return fmt.Errorf("sec: denylist add failed: %w", err)
	}

	return nil
}

// sign builds and signs a single token of the given kind.
//
// The jti claim makes every issuance byte-unique. Revocation is keyed by
// token hash, so two tokens signed in the same second must never collide.
func (service *TokenService) sign(identity Identity, kind TokenKind, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Email,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:   string(kind),
		UserID: identity.UserID,
		Role:   string(identity.Role),
	}

	return jwt.NewWithClaims(service.method, claims).SignedString(service.secret)
}

// parse verifies the signature and optionally the registered claims.
func (service *TokenService) parse(tokenString string, validateClaims bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{service.method.Alg()}),
	}
	if !validateClaims {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return service.secret, nil
	}, options...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	return claims, nil
}
