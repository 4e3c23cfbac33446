// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/constants"
	"github.com/vberko/kontakta/internal/platform/ctxutil"
	"github.com/vberko/kontakta/internal/platform/respond"
	"github.com/vberko/kontakta/internal/platform/sec"
)

// IdentityResolver turns a bearer access token into a resolved user identity.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the auth
// service implementation, allowing mocks to be injected during unit testing.
// Implementations must verify the token (signature, expiry, kind, denylist),
// load the account by the token's subject, and reject unconfirmed accounts —
// returning [apperr.Unauthorized] for every auth failure.
type IdentityResolver interface {
	ResolveAccessToken(context context.Context, token string) (*sec.Identity, error)
}

// Authenticate extracts and resolves the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous ([RequireAuth] blocks later).
//  3. If present, resolve the acting user via [IdentityResolver].
//  4. Inject [*sec.Identity] into the request context for downstream use.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Identity Resolution ────────────────────────────────────────
			identity, err := resolver.ResolveAccessToken(request.Context(), parts[1])
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRoles blocks requests unless the resolved identity's role is a
// member of the allowed set.
//
// # Usage
//
// Must be registered AFTER [Authenticate]; it implies [RequireAuth].
//
// # Semantics
//
// Authorization is strict set membership — there is no role hierarchy, and
// the rejection message is deliberately generic so the response does not leak
// which roles would have been accepted.
func RequireRoles(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("Forbidden"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
