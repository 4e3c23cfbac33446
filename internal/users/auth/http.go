// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/constants"
	"github.com/vberko/kontakta/internal/platform/middleware"
	requestutil "github.com/vberko/kontakta/internal/platform/request"
	"github.com/vberko/kontakta/internal/platform/respond"
	"github.com/vberko/kontakta/internal/platform/validate"
)

// # Route Quotas

// Credential endpoints get tight fixed-window budgets; an attacker guessing
// passwords or spamming signups burns the window fast.
var (
	quotaSignup  = middleware.Quota{Requests: 5, Window: time.Minute}
	quotaLogin   = middleware.Quota{Requests: 10, Window: time.Minute}
	quotaRefresh = middleware.Quota{Requests: 30, Window: time.Minute}
)

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the account lifecycle entry points (Signup, Login,
// Refresh, Logout, ConfirmEmail).
type Handler struct {
	authService *Service
	counters    middleware.CounterStore
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, counters middleware.CounterStore) *Handler {
	return &Handler{authService: service, counters: counters}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /signup  : Creates a new account.
//   - POST /login   : Authenticates and returns a token pair.
//   - POST /refresh : Rotates the refresh token.
//   - POST /logout  : Revokes the presented tokens.
//   - POST /confirm : Confirms an email address.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.With(middleware.RateLimit(handler.counters, "auth_signup", quotaSignup)).
		Post("/signup", handler.signup)
	router.With(middleware.RateLimit(handler.counters, "auth_login", quotaLogin)).
		Post("/login", handler.login)
	router.With(middleware.RateLimit(handler.counters, "auth_refresh", quotaRefresh)).
		Post("/refresh", handler.refresh)
	router.Post("/confirm", handler.confirmEmail)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type confirmRequest struct {
	Token string `json:"token"`
}

/*
Signup handles the creation of a new account.

POST /api/v1/auth/signup

Description: Validates input, persists a new unconfirmed account, and stores
a confirmation token for the email round trip.

Request:
  - Body: signupRequest (Email, Password, DisplayName)

Response:
  - 201: User: Created account profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, 100)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Signup(request.Context(), SignupInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and issues a token pair.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: TokenPair and User profile
  - 401: ErrUnauthorized: Invalid credentials
  - 403: ErrForbidden: Email not confirmed
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, user, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"tokens": pair,
		"user":   user,
	})
}

/*
Refresh rotates the refresh token and issues a new pair.

POST /api/v1/auth/refresh

Description: The presented refresh token is revoked (one-time use) before
the new pair is signed, so a replayed token always fails.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: TokenPair: Rotated credentials
  - 401: ErrUnauthorized: Missing, invalid, or reused refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token"))
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
Logout revokes the caller's tokens.

POST /api/v1/auth/logout

Description: The presented access token is always revoked; a refresh token
supplied in the body is revoked alongside it. Both land in the shared
denylist, so revocation is effective on every replica immediately.

Request:
  - Body (optional): logoutRequest (RefreshToken)

Response:
  - 204: No Content: Session terminated
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	// RequireAuth guarantees the header is present and well-formed here.
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 {
		if err := handler.authService.Logout(request.Context(), parts[1]); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	// The body is optional; a missing or unreadable one only skips the
	// refresh-token revocation.
	var input logoutRequest
	if err := requestutil.DecodeJSON(request, &input); err == nil && input.RefreshToken != "" {
		_ = handler.authService.Logout(request.Context(), input.RefreshToken)
	}

	respond.NoContent(writer)
}

/*
ConfirmEmail activates an account via its confirmation token.

POST /api/v1/auth/confirm

Request:
  - Body: confirmRequest (Token)

Response:
  - 200: Success: Email confirmed
  - 404: ErrNotFound: Token invalid or expired
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	var input confirmRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	if err := handler.authService.ConfirmEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Email confirmed successfully",
	})
}
