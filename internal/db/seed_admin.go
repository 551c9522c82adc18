package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobscout/jobscout/internal/config"
	"github.com/jobscout/jobscout/internal/security"
)

// EnsureAdminUser creates the bootstrap admin account if no user holds that
// email yet. Runs at startup; a no-op when the account already exists.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Warn("admin seeding skipped, ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return nil
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	tag, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, email, role, password_hash)
		VALUES ($1, $2, $3, 'admin', $4)
		ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), cfg.AdminName, cfg.AdminEmail, hash)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	if tag.RowsAffected() > 0 {
		logger.Info("admin user created", "email", cfg.AdminEmail)
	}
	return nil
}
