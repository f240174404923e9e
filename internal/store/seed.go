package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexibio/flexibio-go/internal/auth"
	"github.com/flexibio/flexibio-go/internal/model"
)

// SeedInitialAdmin creates the first identity and its super_admin allow-list
// entry when the allow-list is empty. Idempotent: a non-empty allow-list
// makes this a no-op.
func SeedInitialAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	q := New(db)

	n, err := q.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:            email,
		PasswordHash:     hash,
		EmailConfirmedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("creating seed identity: %w", err)
	}

	if _, err := q.CreateAdminUser(ctx, CreateAdminUserParams{
		UserID: sql.NullInt64{Int64: user.ID, Valid: true},
		Email:  email,
		Role:   model.RoleSuperAdmin,
	}); err != nil {
		return fmt.Errorf("creating seed admin: %w", err)
	}

	slog.Info("seeded initial super_admin", "email", email)
	return nil
}

// SeedDefaultProfile creates the singleton profile row if it does not exist,
// so the public page renders something sensible before first edit.
func SeedDefaultProfile(ctx context.Context, db *sql.DB) error {
	q := New(db)

	if _, err := q.GetProfileSettings(ctx); err == nil {
		return nil
	}

	_, err := q.UpsertProfileSettings(ctx, UpsertProfileSettingsParams{
		BackgroundType:  "gradient",
		BackgroundValue: "linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
		Theme:           "default",
		TwitterCardType: "summary_large_image",
		RobotsDirective: "index,follow",
	})
	if err != nil {
		return fmt.Errorf("creating default profile: %w", err)
	}
	return nil
}
