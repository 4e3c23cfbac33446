// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

// Command api is the entry point for the Kontakta HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (.env honoured in dev).
//  3. Compile network admission lists (fail-fast on malformed entries).
//  4. Connect to PostgreSQL (pgxpool).
//  5. Connect to Redis.
//  6. Run database migrations (idempotent).
//  7. Wire the token service and domain handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vberko/kontakta/internal/api"
	"github.com/vberko/kontakta/internal/contacts"
	"github.com/vberko/kontakta/internal/platform/config"
	"github.com/vberko/kontakta/internal/platform/constants"
	"github.com/vberko/kontakta/internal/platform/middleware"
	"github.com/vberko/kontakta/internal/platform/migration"
	pgstore "github.com/vberko/kontakta/internal/platform/postgres"
	redisstore "github.com/vberko/kontakta/internal/platform/redis"
	"github.com/vberko/kontakta/internal/platform/sec"
	"github.com/vberko/kontakta/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Kontakta] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A .env file is a development convenience; its absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// ── 3. Admission Lists ────────────────────────────────────────────────
	// Compiled once; a malformed pattern or address kills the process here.
	bannedAgents, err := middleware.CompileUserAgentPatterns(cfg.BannedUserAgents)
	must(log, err, "compile banned user-agent patterns")

	bannedIPs, err := middleware.ParseIPMatchers(cfg.BannedIPs)
	must(log, err, "parse banned IP list")

	allowedIPs, err := middleware.ParseIPMatchers(cfg.AllowedIPs)
	must(log, err, "parse allowed IP list")

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 4. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 5. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 6. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 7. Token Service ──────────────────────────────────────────────────
	denylist := auth.NewDenylist(rdb)
	tokenService, err := sec.NewTokenService(
		cfg.JWTSecret, cfg.JWTAlgorithm,
		auth.AccessTokenTTL, auth.RefreshTokenTTL,
		denylist, constants.AuthIssuer,
	)
	must(log, err, "initialize token service")

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	counters := middleware.NewRedisCounter(rdb)

	userRepository := auth.NewUserRepository(pool)
	confirmRepository := auth.NewConfirmationTokenRepository(rdb)
	authService := auth.NewService(userRepository, confirmRepository, tokenService)
	authHandler := auth.NewHandler(authService, counters)

	contactRepository := contacts.NewPostgresRepository(pool)
	contactService := contacts.NewService(contactRepository)
	contactHandler := contacts.NewHandler(contactService, counters)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Contacts:  contactHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, authService, api.Admission{
		BannedAgents: bannedAgents,
		BannedIPs:    bannedIPs,
		AllowedIPs:   allowedIPs,
	}, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
