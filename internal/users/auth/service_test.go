// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/sec"
)

// # Test Doubles

type memoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{nextID: 1, users: make(map[int64]*User)}
}

func (repository *memoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}

	user.ID = repository.nextID
	repository.nextID++
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUserRepository) FindByID(_ context.Context, id int64) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, found := repository.users[id]
	if !found {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryUserRepository) MarkConfirmed(_ context.Context, id int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, found := repository.users[id]
	if !found {
		return apperr.NotFound("User")
	}
	user.Confirmed = true
	return nil
}

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{entries: make(map[string]time.Time)}
}

func (denylist *memoryDenylist) Add(_ context.Context, token string, ttl time.Duration) error {
	denylist.mu.Lock()
	defer denylist.mu.Unlock()
	denylist.entries[token] = time.Now().Add(ttl)
	return nil
}

func (denylist *memoryDenylist) Contains(_ context.Context, token string) (bool, error) {
	denylist.mu.Lock()
	defer denylist.mu.Unlock()
	expiry, found := denylist.entries[token]
	return found && time.Now().Before(expiry), nil
}

type memoryConfirmRepository struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func newMemoryConfirmRepository() *memoryConfirmRepository {
	return &memoryConfirmRepository{tokens: make(map[string]int64)}
}

func (repository *memoryConfirmRepository) Set(_ context.Context, token string, userID int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.tokens[token] = userID
	return nil
}

func (repository *memoryConfirmRepository) Get(_ context.Context, token string) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	userID, found := repository.tokens[token]
	if !found {
		return 0, apperr.NotFound("Confirmation token")
	}
	return userID, nil
}

func (repository *memoryConfirmRepository) Delete(_ context.Context, token string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.tokens, token)
	return nil
}

// # Fixtures

type serviceFixture struct {
	service  *Service
	users    *memoryUserRepository
	confirms *memoryConfirmRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService(
		"test-secret-please-rotate", "HS256",
		AccessTokenTTL, RefreshTokenTTL,
		newMemoryDenylist(), "kontakta.test",
	)
	require.NoError(t, err)

	users := newMemoryUserRepository()
	confirms := newMemoryConfirmRepository()

	return &serviceFixture{
		service:  NewService(users, confirms, tokens),
		users:    users,
		confirms: confirms,
	}
}

func (fixture *serviceFixture) signupConfirmed(t *testing.T, email, password string) *User {
	t.Helper()

	user, err := fixture.service.Signup(context.Background(), SignupInput{
		Email:       email,
		Password:    password,
		DisplayName: "Test User",
	})
	require.NoError(t, err)
	require.NoError(t, fixture.users.MarkConfirmed(context.Background(), user.ID))

	return user
}

// # Tests

func TestSignup(t *testing.T) {
	fixture := newServiceFixture(t)

	t.Run("creates unconfirmed account with hashed password", func(t *testing.T) {
		user, err := fixture.service.Signup(context.Background(), SignupInput{
			Email:       "ana@example.com",
			Password:    "correct horse",
			DisplayName: "Ana",
		})
		require.NoError(t, err)

		assert.NotZero(t, user.ID)
		assert.False(t, user.Confirmed)
		assert.Equal(t, sec.RoleUser, user.Role)
		assert.NotEqual(t, "correct horse", user.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("correct horse", user.PasswordHash))
	})

	t.Run("stores a confirmation token", func(t *testing.T) {
		assert.NotEmpty(t, fixture.confirms.tokens)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := fixture.service.Signup(context.Background(), SignupInput{
			Email:       "ana@example.com",
			Password:    "another password",
			DisplayName: "Ana again",
		})
		require.Error(t, err)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "CONFLICT", appError.Code)
	})
}

func TestLogin(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupConfirmed(t, "ana@example.com", "correct horse")

	t.Run("valid credentials issue a pair", func(t *testing.T) {
		pair, user, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "ana@example.com",
			Password: "correct horse",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, "ana@example.com", user.Email)
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		_, _, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "ana@example.com",
			Password: "wrong",
		})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})

	t.Run("unknown email is 401 not 404", func(t *testing.T) {
		_, _, err := fixture.service.Login(context.Background(), LoginInput{
			Email:    "nobody@example.com",
			Password: "correct horse",
		})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})

	t.Run("unconfirmed account is 403", func(t *testing.T) {
		_, err := fixture.service.Signup(context.Background(), SignupInput{
			Email:       "newcomer@example.com",
			Password:    "some password",
			DisplayName: "Newcomer",
		})
		require.NoError(t, err)

		_, _, err = fixture.service.Login(context.Background(), LoginInput{
			Email:    "newcomer@example.com",
			Password: "some password",
		})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 403, appError.HTTPStatus)
	})
}

func TestRefresh(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupConfirmed(t, "ana@example.com", "correct horse")

	pair, _, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "ana@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	t.Run("rotation issues a fresh pair", func(t *testing.T) {
		rotated, err := fixture.service.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)

		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// A back-to-back rotation within the same second must also succeed:
		// the rotated token is a fresh credential, not a denylisted twin.
		again, err := fixture.service.Refresh(context.Background(), rotated.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
	})

	t.Run("reusing a rotated refresh token is 401", func(t *testing.T) {
		_, err := fixture.service.Refresh(context.Background(), pair.RefreshToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})

	t.Run("access token is rejected as refresh", func(t *testing.T) {
		_, err := fixture.service.Refresh(context.Background(), pair.AccessToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})
}

func TestLogout(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupConfirmed(t, "ana@example.com", "correct horse")

	pair, _, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "ana@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	t.Run("revoked access token stops resolving", func(t *testing.T) {
		_, err := fixture.service.ResolveAccessToken(context.Background(), pair.AccessToken)
		require.NoError(t, err)

		require.NoError(t, fixture.service.Logout(context.Background(), pair.AccessToken))

		_, err = fixture.service.ResolveAccessToken(context.Background(), pair.AccessToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		assert.NoError(t, fixture.service.Logout(context.Background(), pair.AccessToken))
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		err := fixture.service.Logout(context.Background(), "not-a-jwt")
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})
}

func TestConfirmEmail(t *testing.T) {
	fixture := newServiceFixture(t)

	user, err := fixture.service.Signup(context.Background(), SignupInput{
		Email:       "ana@example.com",
		Password:    "correct horse",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	var token string
	for stored := range fixture.confirms.tokens {
		token = stored
	}
	require.NotEmpty(t, token)

	t.Run("valid token confirms the account", func(t *testing.T) {
		require.NoError(t, fixture.service.ConfirmEmail(context.Background(), token))

		confirmed, err := fixture.users.FindByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, confirmed.Confirmed)
	})

	t.Run("token is single-use", func(t *testing.T) {
		err := fixture.service.ConfirmEmail(context.Background(), token)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 404, appError.HTTPStatus)
	})
}

func TestResolveAccessToken(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.signupConfirmed(t, "ana@example.com", "correct horse")

	pair, _, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "ana@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	t.Run("resolves the full account", func(t *testing.T) {
		identity, err := fixture.service.ResolveAccessToken(context.Background(), pair.AccessToken)
		require.NoError(t, err)

		assert.Equal(t, "ana@example.com", identity.Email)
		assert.Equal(t, sec.RoleUser, identity.Role)
		assert.True(t, identity.Confirmed)
	})

	t.Run("refresh token is rejected as access", func(t *testing.T) {
		_, err := fixture.service.ResolveAccessToken(context.Background(), pair.RefreshToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})

	t.Run("account losing confirmation stops resolving", func(t *testing.T) {
		fixture.users.mu.Lock()
		for _, user := range fixture.users.users {
			user.Confirmed = false
		}
		fixture.users.mu.Unlock()

		_, err := fixture.service.ResolveAccessToken(context.Background(), pair.AccessToken)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 401, appError.HTTPStatus)
	})
}
