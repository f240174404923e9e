// Package guard implements the admin authorization flow: it cross-checks
// authenticated identities against the admin allow-list and enforces
// role-based permissions on allow-list mutations. No identity reaches the
// dashboard without an active allow-list entry, and any doubt about that
// entry fails closed.
package guard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flexibio/flexibio-go/internal/auth"
	"github.com/flexibio/flexibio-go/internal/mailer"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
)

// Sentinel errors surfaced to handlers. Handlers must map ErrNotAuthorized
// to one generic message regardless of the underlying cause (unknown email,
// wrong password, missing or inactive allow-list entry, lookup fault) so the
// flow cannot be used for account enumeration.
var (
	ErrNotAuthorized          = errors.New("not authorized for admin access")
	ErrInsufficientPermission = errors.New("insufficient permissions")
	ErrInvalidToken           = errors.New("invalid or expired token")
)

// MagicLinkTTL is the lifetime of an emailed sign-in link.
const MagicLinkTTL = 15 * time.Minute

// PasswordResetTTL is the lifetime of an emailed reset link.
const PasswordResetTTL = time.Hour

// Guard gates dashboard access.
type Guard struct {
	db      *sql.DB
	queries *store.Queries
	events  *service.EventService
	mailer  mailer.Mailer

	// baseURL is the configured application base URL used for email
	// redirect construction; the request origin is the fallback.
	baseURL string

	now func() time.Time
}

// New creates a Guard.
func New(db *sql.DB, events *service.EventService, m mailer.Mailer, baseURL string) *Guard {
	return &Guard{
		db:      db,
		queries: store.New(db),
		events:  events,
		mailer:  m,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// activeAdminForEmail looks up the active allow-list entry for an email,
// failing closed: a lookup fault is indistinguishable from "no entry".
func (g *Guard) activeAdminForEmail(ctx context.Context, email string) (model.AdminUser, error) {
	admin, err := g.queries.GetActiveAdminByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("allow-list lookup failed", "error", err)
		}
		return model.AdminUser{}, ErrNotAuthorized
	}
	return admin, nil
}

// SignInWithPassword authenticates an identity and cross-checks the admin
// allow-list both before and after password verification. On success the
// caller may establish a session for the returned identity; on any failure
// no session state exists and ErrNotAuthorized is returned.
func (g *Guard) SignInWithPassword(ctx context.Context, email, password string) (model.User, model.AdminUser, error) {
	// Pre-check: unauthorized emails are rejected before touching credentials.
	if _, err := g.activeAdminForEmail(ctx, email); err != nil {
		g.logDenied(ctx, "Sign-in rejected: email not on allow-list", email)
		return model.User{}, model.AdminUser{}, ErrNotAuthorized
	}

	user, err := g.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("identity lookup failed", "error", err)
		}
		return model.User{}, model.AdminUser{}, ErrNotAuthorized
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		return model.User{}, model.AdminUser{}, ErrNotAuthorized
	}
	if !valid {
		g.logDenied(ctx, "Sign-in rejected: invalid password", email)
		return model.User{}, model.AdminUser{}, ErrNotAuthorized
	}

	// Re-check after authentication. A valid credential holder whose
	// allow-list entry vanished between the two checks is still rejected.
	admin, err := g.authorize(ctx, user)
	if err != nil {
		return model.User{}, model.AdminUser{}, err
	}

	g.recordLogin(ctx, user, admin)
	return user, admin, nil
}

// authorize cross-checks an authenticated identity against the allow-list,
// matching by user id first and falling back to email for entries created
// before the identity existed (the email match links the entry).
func (g *Guard) authorize(ctx context.Context, user model.User) (model.AdminUser, error) {
	admin, err := g.queries.GetActiveAdminByUserID(ctx, user.ID)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("allow-list lookup failed", "error", err)
		return model.AdminUser{}, ErrNotAuthorized
	}

	admin, err = g.activeAdminForEmail(ctx, user.Email)
	if err != nil {
		g.logDenied(ctx, "Sign-in rejected: authenticated identity not on allow-list", user.Email)
		return model.AdminUser{}, ErrNotAuthorized
	}
	if err := g.queries.LinkAdminToUser(ctx, admin.ID, user.ID); err != nil {
		slog.Error("failed to link allow-list entry to identity", "error", err, "admin_id", admin.ID)
	}
	return admin, nil
}

// recordLogin updates last_login best-effort and logs the event. Failures
// are logged, never surfaced.
func (g *Guard) recordLogin(ctx context.Context, user model.User, admin model.AdminUser) {
	if err := g.queries.UpdateAdminLastLogin(ctx, admin.ID, g.now().UTC()); err != nil {
		slog.Error("failed to update last login", "error", err, "admin_id", admin.ID)
	}
	_ = g.events.LogAuthEvent(ctx, model.EventLevelInfo, "Admin signed in", &user.ID, "", "",
		map[string]any{"email": user.Email, "role": string(admin.Role)})
}

// SignInWithMagicLink pre-checks the allow-list, then issues a single-use
// token and emails the sign-in link. A nil error means the link is pending;
// no session exists until the link is redeemed.
func (g *Guard) SignInWithMagicLink(ctx context.Context, email, requestOrigin string) error {
	if _, err := g.activeAdminForEmail(ctx, email); err != nil {
		g.logDenied(ctx, "Magic link rejected: email not on allow-list", email)
		return ErrNotAuthorized
	}

	token, err := auth.NewToken()
	if err != nil {
		return fmt.Errorf("issuing magic link token: %w", err)
	}

	if err := g.queries.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		ID:        token.ID,
		Purpose:   model.TokenPurposeMagicLink,
		Email:     email,
		TokenHash: token.Hash,
		ExpiresAt: g.now().Add(MagicLinkTTL),
	}); err != nil {
		return fmt.Errorf("storing magic link token: %w", err)
	}

	redirect := auth.MagicLinkRedirect(g.baseURL, requestOrigin)
	link := auth.ResolveRedirectBase(g.baseURL, requestOrigin) + "/auth/magic/" + token.Raw

	body := fmt.Sprintf("Follow this link to sign in to your dashboard:\n\n%s\n\n"+
		"The link is valid for %d minutes and can be used once. "+
		"After signing in you will land on %s.",
		link, int(MagicLinkTTL.Minutes()), redirect)

	if err := g.mailer.Send(email, "Your sign-in link", body); err != nil {
		return fmt.Errorf("sending magic link: %w", err)
	}
	return nil
}

// RedeemMagicLink validates a raw token from the emailed URL, re-checks the
// allow-list, and returns the identity to establish a session for. The token
// is consumed exactly once; a concurrent redeem loses.
func (g *Guard) RedeemMagicLink(ctx context.Context, rawToken string) (model.User, model.AdminUser, error) {
	email, err := g.consumeToken(ctx, rawToken, model.TokenPurposeMagicLink)
	if err != nil {
		return model.User{}, model.AdminUser{}, err
	}

	admin, err := g.activeAdminForEmail(ctx, email)
	if err != nil {
		g.logDenied(ctx, "Magic link redeem rejected: entry no longer active", email)
		return model.User{}, model.AdminUser{}, ErrNotAuthorized
	}

	user, err := g.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("identity lookup failed", "error", err)
			return model.User{}, model.AdminUser{}, ErrNotAuthorized
		}
		// First magic-link sign-in of an allow-listed email: create the
		// identity with an unusable password; the email round-trip is the
		// confirmation.
		user, err = g.createIdentityForEmail(ctx, email)
		if err != nil {
			slog.Error("failed to create identity for magic link", "error", err)
			return model.User{}, model.AdminUser{}, ErrNotAuthorized
		}
	}

	if err := g.queries.LinkAdminToUser(ctx, admin.ID, user.ID); err != nil {
		slog.Error("failed to link allow-list entry to identity", "error", err, "admin_id", admin.ID)
	}
	if err := g.queries.ConfirmUserEmail(ctx, user.ID); err != nil {
		slog.Error("failed to confirm email", "error", err, "user_id", user.ID)
	}

	g.recordLogin(ctx, user, admin)
	return user, admin, nil
}

// createIdentityForEmail creates an identity with a random password hash for
// an email that only ever signed in via magic link.
func (g *Guard) createIdentityForEmail(ctx context.Context, email string) (model.User, error) {
	token, err := auth.NewToken()
	if err != nil {
		return model.User{}, err
	}
	hash, err := auth.HashPassword(token.Raw)
	if err != nil {
		return model.User{}, err
	}
	return g.queries.CreateUser(ctx, store.CreateUserParams{
		Email:            email,
		PasswordHash:     hash,
		EmailConfirmedAt: sql.NullTime{Time: g.now().UTC(), Valid: true},
	})
}

// consumeToken validates and consumes a single-use token, returning the
// email it was issued for.
func (g *Guard) consumeToken(ctx context.Context, rawToken, purpose string) (string, error) {
	id, secret, err := auth.SplitToken(rawToken)
	if err != nil {
		return "", ErrInvalidToken
	}

	token, err := g.queries.GetAuthToken(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("token lookup failed", "error", err)
		}
		return "", ErrInvalidToken
	}

	if token.Purpose != purpose ||
		token.UsedAt.Valid ||
		g.now().After(token.ExpiresAt) ||
		!auth.VerifyTokenSecret(secret, token.TokenHash) {
		return "", ErrInvalidToken
	}

	n, err := g.queries.MarkAuthTokenUsed(ctx, token.ID)
	if err != nil {
		slog.Error("failed to consume token", "error", err, "token_id", token.ID)
		return "", ErrInvalidToken
	}
	if n == 0 {
		// Lost a race with a concurrent redeem.
		return "", ErrInvalidToken
	}

	return token.Email, nil
}

// RequestPasswordReset pre-checks the allow-list and emails a reset link.
// Returns nil even for unauthorized emails so the endpoint cannot confirm
// which addresses exist; only allow-listed emails actually receive mail.
func (g *Guard) RequestPasswordReset(ctx context.Context, email, requestOrigin string) error {
	if _, err := g.activeAdminForEmail(ctx, email); err != nil {
		g.logDenied(ctx, "Reset rejected: email not on allow-list", email)
		return nil
	}

	token, err := auth.NewToken()
	if err != nil {
		return fmt.Errorf("issuing reset token: %w", err)
	}

	if err := g.queries.CreateAuthToken(ctx, store.CreateAuthTokenParams{
		ID:        token.ID,
		Purpose:   model.TokenPurposePasswordReset,
		Email:     email,
		TokenHash: token.Hash,
		ExpiresAt: g.now().Add(PasswordResetTTL),
	}); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	link := auth.PasswordResetRedirect(g.baseURL, requestOrigin) + "?token=" + token.Raw
	body := fmt.Sprintf("Follow this link to choose a new password:\n\n%s\n\n"+
		"The link is valid for %d minutes and can be used once.",
		link, int(PasswordResetTTL.Minutes()))

	if err := g.mailer.Send(email, "Reset your password", body); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the identity's password.
// It returns the affected identity so the caller can revoke its sessions.
func (g *Guard) ResetPassword(ctx context.Context, rawToken, newPassword string) (model.User, error) {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return model.User{}, err
	}

	email, err := g.consumeToken(ctx, rawToken, model.TokenPurposePasswordReset)
	if err != nil {
		return model.User{}, err
	}

	user, err := g.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("identity lookup failed", "error", err)
			return model.User{}, ErrInvalidToken
		}
		user, err = g.createIdentityForEmail(ctx, email)
		if err != nil {
			return model.User{}, fmt.Errorf("creating identity: %w", err)
		}
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}
	if err := g.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    g.now().UTC(),
		ID:           user.ID,
	}); err != nil {
		return model.User{}, fmt.Errorf("updating password: %w", err)
	}

	_ = g.events.LogAuthEvent(ctx, model.EventLevelInfo, "Password reset completed", &user.ID, "", "",
		map[string]any{"email": email})
	return user, nil
}

// CreateAdminUser appends one allow-list entry. Callers need a role with
// user management capability; assigning super_admin needs super_admin.
func (g *Guard) CreateAdminUser(ctx context.Context, caller model.AdminUser, userID sql.NullInt64, email string, role model.Role) (model.AdminUser, error) {
	if !caller.Role.CanManageUsers() {
		g.logPermissionDenied(ctx, caller, "create admin user")
		return model.AdminUser{}, ErrInsufficientPermission
	}
	if !role.IsValid() {
		return model.AdminUser{}, fmt.Errorf("invalid role %q", role)
	}
	if role.IsSuperAdmin() && !caller.Role.IsSuperAdmin() {
		g.logPermissionDenied(ctx, caller, "assign super_admin role")
		return model.AdminUser{}, ErrInsufficientPermission
	}

	admin, err := g.queries.CreateAdminUser(ctx, store.CreateAdminUserParams{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedBy: sql.NullInt64{Int64: caller.ID, Valid: true},
	})
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("creating admin user: %w", err)
	}

	_ = g.events.Log(ctx, model.EventLevelInfo, model.EventCategoryAdmin, "Admin user created", nil,
		map[string]any{"email": email, "role": string(role), "created_by": caller.Email})
	return admin, nil
}

// UpdateAdminUser changes role or active flag of an entry. Super admin only.
// Deactivation is a soft delete; rows are never removed here.
func (g *Guard) UpdateAdminUser(ctx context.Context, caller model.AdminUser, id int64, role model.Role, isActive bool) (model.AdminUser, error) {
	if !caller.Role.IsSuperAdmin() {
		g.logPermissionDenied(ctx, caller, "update admin user")
		return model.AdminUser{}, ErrInsufficientPermission
	}
	if !role.IsValid() {
		return model.AdminUser{}, fmt.Errorf("invalid role %q", role)
	}

	admin, err := g.queries.UpdateAdminUser(ctx, store.UpdateAdminUserParams{
		ID:       id,
		Role:     role,
		IsActive: isActive,
	})
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("updating admin user: %w", err)
	}

	_ = g.events.Log(ctx, model.EventLevelInfo, model.EventCategoryAdmin, "Admin user updated", nil,
		map[string]any{"admin_id": id, "role": string(role), "is_active": isActive, "updated_by": caller.Email})
	return admin, nil
}

// AvailableIdentities returns confirmed identities eligible for promotion:
// real accounts without an allow-list entry.
func (g *Guard) AvailableIdentities(ctx context.Context) ([]model.User, error) {
	return g.queries.ListAvailableUsers(ctx)
}

func (g *Guard) logDenied(ctx context.Context, message, email string) {
	_ = g.events.LogAuthEvent(ctx, model.EventLevelWarning, message, nil, "", "",
		map[string]any{"email": email})
}

func (g *Guard) logPermissionDenied(ctx context.Context, caller model.AdminUser, action string) {
	slog.Warn("permission denied", "action", action, "caller", caller.Email, "role", caller.Role)
	_ = g.events.Log(ctx, model.EventLevelWarning, model.EventCategoryAdmin,
		"Permission denied: "+action, nil,
		map[string]any{"caller": caller.Email, "role": string(caller.Role)})
}
