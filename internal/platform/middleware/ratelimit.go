// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/constants"
	"github.com/vberko/kontakta/internal/platform/ctxutil"
	"github.com/vberko/kontakta/internal/platform/respond"
)

// Quota defines a per-route request budget over a fixed window.
type Quota struct {
	// Requests is the number of requests allowed within one window.
	Requests int64
	// Window is the fixed counting window.
	Window time.Duration
}

// CounterStore is the shared counter backend for fixed-window rate limiting.
//
// Incr bumps the counter for the key, arming the window expiry on the first
// hit, and returns the post-increment count together with the time remaining
// until the window resets.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// RedisCounter implements [CounterStore] on a shared Redis instance so that
// quotas hold across all API replicas.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps the given Redis client as a [CounterStore].
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr executes the INCR + EXPIRE NX + PTTL sequence in a single pipeline.
//
// EXPIRE NX only arms the TTL on the window's first request, so later hits
// never push the reset point forward.
func (counter *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := counter.client.TxPipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("ratelimit: counter pipeline: %w", err)
	}

	ttl := pttl.Val()
	if ttl < 0 {
		ttl = window
	}
	return incr.Val(), ttl, nil
}

// RateLimit enforces a per-route quota backed by the shared counter store.
//
// # Keying
//
// Authenticated requests are counted per user ("u:<id>"), anonymous ones per
// client IP ("ip:<addr>"), each scoped by the route name. A user switching
// networks keeps one budget; an IP cycling accounts does not reset it.
//
// # Failure Mode
//
// Availability is preferred over strictness here: if the counter store is
// unreachable the request is admitted and a warning is logged. Security
// checks (denylist, admission) make the opposite call.
func RateLimit(store CounterStore, routeName string, quota Quota) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Subject Keying ─────────────────────────────────────────────
			var subject string
			if identity := ctxutil.GetIdentity(request.Context()); identity != nil {
				subject = fmt.Sprintf("u:%d", identity.UserID)
			} else {
				subject = "ip:" + RealIP(request)
			}
			key := constants.RedisPrefixQuota + routeName + ":" + subject

			// ── 2. Counting ───────────────────────────────────────────────────
			count, ttl, err := store.Incr(request.Context(), key, quota.Window)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"rate_limit_store_unavailable",
					slog.String("route", routeName),
					slog.Any("error", err),
				)
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Enforcement ────────────────────────────────────────────────
			if count > quota.Requests {
				retryAfter := int(math.Ceil(ttl.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				respond.Error(writer, request, apperr.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
