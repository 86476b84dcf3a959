package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/config"
)

// Seed creates the bootstrap administrator account when seeding is enabled
// and the users table is empty. With seeding disabled the first account to
// register becomes the administrator instead.
func Seed(ctx context.Context, db *sql.DB, cfg *config.Config) error {
	if !cfg.DoSeed {
		return nil
	}

	queries := New(db)

	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		slog.Info("users already exist, skipping seed")
		return nil
	}

	passwordHash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        cfg.AdminEmail,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		Name:         cfg.AdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created administrator account", "id", user.ID, "email", user.Email)

	return nil
}
