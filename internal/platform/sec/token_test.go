// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package sec_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vberko/kontakta/internal/platform/sec"
)

// memoryDenylist is an in-process Denylist for tests.
type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{entries: map[string]time.Time{}}
}

func (d *memoryDenylist) Add(_ context.Context, token string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[token] = time.Now().Add(ttl)
	return nil
}

func (d *memoryDenylist) Contains(_ context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiry, ok := d.entries[token]
	return ok && time.Now().Before(expiry), nil
}

func newTestService(t *testing.T, accessTTL time.Duration) (*sec.TokenService, *memoryDenylist) {
	t.Helper()
	denylist := newMemoryDenylist()
	service, err := sec.NewTokenService("test-secret", "HS256", accessTTL, 24*time.Hour, denylist, "kontakta.test")
	require.NoError(t, err)
	return service, denylist
}

var testIdentity = sec.Identity{
	UserID:    42,
	Email:     "olena@example.com",
	Role:      sec.RoleUser,
	Confirmed: true,
}

/*
TestNewTokenService_AlgorithmValidation ensures only HS256/HS512 are accepted.
*/
func TestNewTokenService_AlgorithmValidation(t *testing.T) {
	tests := []struct {
		algorithm string
		wantErr   bool
	}{
		{"HS256", false},
		{"HS512", false},
		{"HS384", true},
		{"RS256", true},
		{"none", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			_, err := sec.NewTokenService("secret", tt.algorithm, time.Minute, time.Hour, newMemoryDenylist(), "iss")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestTokenService_IssueAndVerify covers the round-trip for both token kinds.
*/
func TestTokenService_IssueAndVerify(t *testing.T) {
	service, _ := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	pair, err := service.Issue(testIdentity)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := service.Verify(ctx, pair.AccessToken, sec.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "olena@example.com", access.Subject)
	assert.Equal(t, int64(42), access.UserID)
	assert.Equal(t, "user", access.Role)

	refresh, err := service.Verify(ctx, pair.RefreshToken, sec.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.Kind)
}

/*
TestTokenService_UniquePerIssue ensures two pairs issued for the same identity
in the same instant are byte-distinct, so revoking one can never denylist the
other. JWT timestamps have one-second resolution; the jti claim carries the
uniqueness.
*/
func TestTokenService_UniquePerIssue(t *testing.T) {
	service, _ := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	first, err := service.Issue(testIdentity)
	require.NoError(t, err)
	second, err := service.Issue(testIdentity)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Revoking the first pair leaves the second fully usable.
	require.NoError(t, service.Revoke(ctx, first.RefreshToken))
	_, err = service.Verify(ctx, second.RefreshToken, sec.KindRefresh)
	assert.NoError(t, err)
}

/*
TestTokenService_KindMismatch ensures a refresh token can never pass as access
and vice versa.
*/
func TestTokenService_KindMismatch(t *testing.T) {
	service, _ := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	pair, err := service.Issue(testIdentity)
	require.NoError(t, err)

	_, err = service.Verify(ctx, pair.RefreshToken, sec.KindAccess)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	_, err = service.Verify(ctx, pair.AccessToken, sec.KindRefresh)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Expired ensures an expired token fails verification.
*/
func TestTokenService_Expired(t *testing.T) {
	service, _ := newTestService(t, -1*time.Minute)
	ctx := context.Background()

	pair, err := service.Issue(testIdentity)
	require.NoError(t, err)

	_, err = service.Verify(ctx, pair.AccessToken, sec.KindAccess)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_ForeignSignature ensures tokens signed with another secret
are rejected.
*/
func TestTokenService_ForeignSignature(t *testing.T) {
	service, _ := newTestService(t, 15*time.Minute)

	foreign, err := sec.NewTokenService("other-secret", "HS256", 15*time.Minute, time.Hour, newMemoryDenylist(), "kontakta.test")
	require.NoError(t, err)

	pair, err := foreign.Issue(testIdentity)
	require.NoError(t, err)

	_, err = service.Verify(context.Background(), pair.AccessToken, sec.KindAccess)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_RevokeThenVerify ensures revocation is terminal: a revoked
token must fail verification for the rest of its lifetime.
*/
func TestTokenService_RevokeThenVerify(t *testing.T) {
	service, _ := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	pair, err := service.Issue(testIdentity)
	require.NoError(t, err)

	// Sanity: verifies before revocation.
	_, err = service.Verify(ctx, pair.AccessToken, sec.KindAccess)
	require.NoError(t, err)

	require.NoError(t, service.Revoke(ctx, pair.AccessToken))

	_, err = service.Verify(ctx, pair.AccessToken, sec.KindAccess)
	assert.ErrorIs(t, err, sec.ErrTokenRevoked)

	// Revocation is idempotent.
	assert.NoError(t, service.Revoke(ctx, pair.AccessToken))
	_, err = service.Verify(ctx, pair.AccessToken, sec.KindAccess)
	assert.ErrorIs(t, err, sec.ErrTokenRevoked)
}

/*
TestTokenService_RevokeExpired ensures revoking an expired token is a no-op
rather than an unbounded denylist write.
*/
func TestTokenService_RevokeExpired(t *testing.T) {
	service, denylist := newTestService(t, -1*time.Minute)
	ctx := context.Background()

	pair, err := service.Issue(testIdentity)
	require.NoError(t, err)

	require.NoError(t, service.Revoke(ctx, pair.AccessToken))
	assert.Empty(t, denylist.entries)
}

/*
TestRole_In verifies set-membership authorization semantics.
*/
func TestRole_In(t *testing.T) {
	assert.True(t, sec.RoleAdmin.In(sec.RoleModerator, sec.RoleAdmin))
	assert.True(t, sec.RoleModerator.In(sec.RoleModerator, sec.RoleAdmin))
	assert.False(t, sec.RoleUser.In(sec.RoleModerator, sec.RoleAdmin))
	assert.False(t, sec.RoleAdmin.In())
}

/*
TestHashToken ensures digests are stable and distinct per token.
*/
func TestHashToken(t *testing.T) {
	assert.Equal(t, sec.HashToken("abc"), sec.HashToken("abc"))
	assert.NotEqual(t, sec.HashToken("abc"), sec.HashToken("abd"))
	assert.Len(t, sec.HashToken("abc"), 64)
}
