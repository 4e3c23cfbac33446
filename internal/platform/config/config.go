// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only. The admission lists
    (banned IPs, allowed IPs, user-agent patterns) are parsed exactly once at
    startup; changing them requires a restart.
  - DI-Friendly: Passed to core components (DB, Redis, token service) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Kontakta API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis): token denylist, confirmation tokens, rate-limit counters
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTSecret    string `env:"JWT_SECRET,required"`
	JWTAlgorithm string `env:"JWT_ALGORITHM" envDefault:"HS256"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Network admission lists. Banned/allowed IP entries accept bare addresses
	// ("192.168.1.1") or CIDR prefixes ("10.0.0.0/8"). User-agent entries are
	// regular expressions.
	BannedUserAgents []string `env:"BANNED_USER_AGENTS" envSeparator:"," envDefault:"Googlebot,Python-urllib"`
	BannedIPs        []string `env:"BANNED_IPS"         envSeparator:","`
	AllowedIPs       []string `env:"ALLOWED_IPS"        envSeparator:"," envDefault:"0.0.0.0/0,::/0"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
//
// The signing algorithm is validated here so a typo'd JWT_ALGORITHM kills the
// process at startup instead of surfacing on the first login.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.JWTAlgorithm != "HS256" && cfg.JWTAlgorithm != "HS512" {
		return nil, fmt.Errorf("config: JWT_ALGORITHM must be HS256 or HS512, got %q", cfg.JWTAlgorithm)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
