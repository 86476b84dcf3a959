// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OBLOG_DB_PATH" envDefault:"./data/oblog.db"`
	SessionSecret string `env:"OBLOG_SESSION_SECRET,required"`
	ServerHost    string `env:"OBLOG_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OBLOG_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OBLOG_ENV" envDefault:"development"`
	LogLevel      string `env:"OBLOG_LOG_LEVEL" envDefault:"info"`

	SiteName string `env:"OBLOG_SITE_NAME" envDefault:"oBlog"`

	// Seeding configuration. When DoSeed is set and no users exist yet,
	// the bootstrap administrator account is created from these values.
	DoSeed        bool   `env:"OBLOG_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"OBLOG_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"OBLOG_ADMIN_PASSWORD"`
	AdminName     string `env:"OBLOG_ADMIN_NAME" envDefault:"Administrator"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("OBLOG_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if cfg.DoSeed && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("OBLOG_ADMIN_PASSWORD is required when OBLOG_DO_SEED is enabled")
	}

	return cfg, nil
}
