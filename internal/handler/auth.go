package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/flexibio/flexibio-go/internal/auth"
	"github.com/flexibio/flexibio-go/internal/guard"
	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	queries         *store.Queries
	guard           *guard.Guard
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, g *guard.Guard, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		guard:           g,
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

// LoginForm renders the login page.
// Already-authenticated admins are sent straight to the dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID); userID > 0 {
		if _, err := h.queries.GetActiveAdminByUserID(r.Context(), userID); err == nil {
			http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
			return
		}
	}

	if err := h.renderer.Render(w, r, "auth/login", render.TemplateData{
		Title: "Sign In",
	}); err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// Login handles the password login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required")
		return
	}

	clientIP := util.GetClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", nil, clientIP, r.URL.Path, map[string]any{"email": email})
			flashError(w, r, h.renderer, redirectLogin, fmt.Sprintf("Too many failed attempts. Try again in %s", formatDuration(remaining)))
			return
		}
	}

	user, admin, err := h.guard.SignInWithPassword(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, guard.ErrNotAuthorized) {
			slog.Error("sign-in error", "error", err)
		}
		// Failed attempts are recorded for unknown emails too, so the
		// response does not reveal which addresses exist.
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
				_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Account locked due to failed attempts", nil, clientIP, r.URL.Path, map[string]any{"email": email, "duration": lockDuration.String()})
				flashError(w, r, h.renderer, redirectLogin, fmt.Sprintf("Too many failed attempts. Try again in %s", formatDuration(lockDuration)))
				return
			}
			remaining := h.loginProtection.GetRemainingAttempts(email)
			if remaining <= 3 && remaining > 0 {
				flashError(w, r, h.renderer, redirectLogin, fmt.Sprintf("Invalid credentials. %d attempts remaining", remaining))
				return
			}
		}
		flashError(w, r, h.renderer, redirectLogin, "Invalid credentials")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Re-hash if the stored hash uses outdated parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now().UTC(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	// Regenerate session ID to prevent session fixation.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("admin logged in", "user_id", user.ID, "email", user.Email, "role", admin.Role)

	h.renderer.SetFlash(r, "Welcome back", "success")
	http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
}

// MagicLinkRequest handles the magic link form submission. The response is
// identical whether or not the email is on the allow-list.
func (h *AuthHandler) MagicLinkRequest(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := r.FormValue("email")
	if _, err := mail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, redirectLogin, "A valid email address is required")
		return
	}

	clientIP := util.GetClientIP(r)

	if h.loginProtection != nil && !h.loginProtection.CheckIPRateLimit(clientIP) {
		flashError(w, r, h.renderer, redirectLogin, "Too many requests. Please wait and try again")
		return
	}

	if err := h.guard.SignInWithMagicLink(r.Context(), email, requestOrigin(r)); err != nil {
		if !errors.Is(err, guard.ErrNotAuthorized) {
			slog.Error("magic link request failed", "error", err)
		}
		// Fall through: the flash below never reveals the outcome.
	}

	flashSuccess(w, r, h.renderer, redirectLogin, "If that address is authorized, a sign-in link is on its way")
}

// MagicLinkRedeem handles GET /auth/magic/{token} from the emailed link.
func (h *AuthHandler) MagicLinkRedeem(w http.ResponseWriter, r *http.Request) {
	rawToken := chi.URLParam(r, "token")
	if rawToken == "" {
		flashError(w, r, h.renderer, redirectLogin, "Invalid sign-in link")
		return
	}

	user, admin, err := h.guard.RedeemMagicLink(r.Context(), rawToken)
	if err != nil {
		slog.Warn("magic link redemption failed", "error", err, "client_ip", util.GetClientIP(r))
		flashError(w, r, h.renderer, redirectLogin, "That sign-in link is invalid or has expired")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(user.Email)
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("admin logged in via magic link", "user_id", user.ID, "email", user.Email, "role", admin.Role)

	h.renderer.SetFlash(r, "Welcome back", "success")
	http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
}

// ForgotPasswordForm renders the password reset request page.
func (h *AuthHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "auth/forgot_password", render.TemplateData{
		Title: "Forgot Password",
	}); err != nil {
		logAndInternalError(w, "failed to render forgot password page", "error", err)
	}
}

// ForgotPassword handles the password reset request form submission.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteForgotPassword) {
		return
	}

	email := r.FormValue("email")
	if _, err := mail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, RouteForgotPassword, "A valid email address is required")
		return
	}

	clientIP := util.GetClientIP(r)
	if h.loginProtection != nil && !h.loginProtection.CheckIPRateLimit(clientIP) {
		flashError(w, r, h.renderer, RouteForgotPassword, "Too many requests. Please wait and try again")
		return
	}

	if err := h.guard.RequestPasswordReset(r.Context(), email, requestOrigin(r)); err != nil {
		if !errors.Is(err, guard.ErrNotAuthorized) {
			slog.Error("password reset request failed", "error", err)
		}
	}

	flashSuccess(w, r, h.renderer, redirectLogin, "If that address is authorized, a reset link is on its way")
}

// ResetPasswordForm renders the new password page reached from the emailed link.
func (h *AuthHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		flashError(w, r, h.renderer, redirectLogin, "Invalid reset link")
		return
	}

	if err := h.renderer.Render(w, r, "auth/reset_password", render.TemplateData{
		Title: "Reset Password",
		Data:  map[string]any{"Token": token},
	}); err != nil {
		logAndInternalError(w, "failed to render reset password page", "error", err)
	}
}

// ResetPassword handles the new password form submission.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	if token == "" {
		flashError(w, r, h.renderer, redirectLogin, "Invalid reset link")
		return
	}
	if password != confirm {
		flashError(w, r, h.renderer, RouteResetPassword+"?token="+token, "Passwords do not match")
		return
	}
	if err := auth.ValidatePassword(password); err != nil {
		flashError(w, r, h.renderer, RouteResetPassword+"?token="+token, err.Error())
		return
	}

	user, err := h.guard.ResetPassword(r.Context(), token, password)
	if err != nil {
		if errors.Is(err, guard.ErrInvalidToken) {
			flashError(w, r, h.renderer, redirectLogin, "That reset link is invalid or has expired")
			return
		}
		slog.Error("password reset failed", "error", err)
		flashError(w, r, h.renderer, redirectLogin, "Could not reset password")
		return
	}

	// Revoke every existing session of the identity: a reset usually means the
	// old credential may be compromised.
	if err := h.destroyUserSessions(r.Context(), user.ID); err != nil {
		slog.Error("failed to revoke sessions after password reset", "error", err, "user_id", user.ID)
	}

	flashSuccess(w, r, h.renderer, redirectLogin, "Password updated. Sign in with your new password")
}

// Logout handles admin logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "Admin logged out", &userID, util.GetClientIP(r), r.URL.Path, nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("admin logged out", "user_id", userID)
	flashAndRedirect(w, r, h.renderer, redirectLogin, "You have been signed out", "info")
}

// destroyUserSessions walks the session store and destroys every session that
// belongs to the given user, including ones on other devices.
func (h *AuthHandler) destroyUserSessions(ctx context.Context, userID int64) error {
	return h.sessionManager.Iterate(ctx, func(sctx context.Context) error {
		if h.sessionManager.GetInt64(sctx, middleware.SessionKeyUserID) != userID {
			return nil
		}
		return h.sessionManager.Destroy(sctx)
	})
}

// requestOrigin reconstructs the scheme://host origin of the current request
// for building emailed link URLs when no base URL is configured.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
