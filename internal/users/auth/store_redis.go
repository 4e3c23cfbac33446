// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/constants"
	"github.com/vberko/kontakta/internal/platform/sec"
)

// # Token Denylist

// RedisDenylist implements [sec.Denylist] on a shared Redis instance.
//
// Keys carry the hashed token so raw JWTs never land in Redis; entries expire
// together with the token's own lifetime.
type RedisDenylist struct {
	client *redis.Client
}

// NewDenylist creates a new Redis-backed [sec.Denylist].
func NewDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

/*
Add inserts a revoked token hash with its remaining lifetime as TTL.

Parameters:
  - context: context.Context
  - tokenHash: string (already hashed by the caller)
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (denylist *RedisDenylist) Add(context context.Context, tokenHash string, ttl time.Duration) error {
	key := constants.RedisPrefixDenylist + tokenHash

	if err := denylist.client.Set(context, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_denylist_add_failed: %w", err)
	}

	return nil
}

/*
Contains reports whether a token hash is currently denylisted.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - bool: Membership
  - error: Connectivity errors (callers treat these as fail-closed)
*/
func (denylist *RedisDenylist) Contains(context context.Context, tokenHash string) (bool, error) {
	key := constants.RedisPrefixDenylist + tokenHash

	count, err := denylist.client.Exists(context, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_check_failed: %w", err)
	}

	return count > 0, nil
}

// Interface guard.
var _ sec.Denylist = (*RedisDenylist)(nil)

// # Confirmation Token Repository

// RedisConfirmationTokenRepository implements [ConfirmationTokenRepository] using Redis.
type RedisConfirmationTokenRepository struct {
	client *redis.Client
}

// NewConfirmationTokenRepository creates a new Redis-backed [ConfirmationTokenRepository].
func NewConfirmationTokenRepository(client *redis.Client) *RedisConfirmationTokenRepository {
	return &RedisConfirmationTokenRepository{client: client}
}

/*
Set stores a confirmation token hash with its associated userID.

Parameters:
  - context: context.Context
  - token: string (raw token, hashed before storage)
  - userID: int64

Returns:
  - error: Storage failures
*/
func (repository *RedisConfirmationTokenRepository) Set(context context.Context, token string, userID int64) error {
	key := constants.RedisPrefixConfirmToken + sec.HashToken(token)

	if err := repository.client.Set(context, key, userID, ConfirmTokenTTL).Err(); err != nil {
		return fmt.Errorf("redis_confirm_token_set_failed: %w", err)
	}

	return nil
}

/*
Get resolves a confirmation token back to the user ID it was issued for.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - int64: UserID
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisConfirmationTokenRepository) Get(context context.Context, token string) (int64, error) {
	key := constants.RedisPrefixConfirmToken + sec.HashToken(token)

	value, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperr.NotFound("Confirmation token")
		}
		return 0, fmt.Errorf("redis_confirm_token_get_failed: %w", err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis_confirm_token_corrupt_value: %w", err)
	}

	return userID, nil
}

/*
Delete removes a used or abandoned confirmation token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisConfirmationTokenRepository) Delete(context context.Context, token string) error {
	key := constants.RedisPrefixConfirmToken + sec.HashToken(token)

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_confirm_token_delete_failed: %w", err)
	}

	return nil
}
