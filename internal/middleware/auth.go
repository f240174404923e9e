// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyAdmin       ContextKey = "admin"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyUserID is the session key holding the signed-in user's ID.
const SessionKeyUserID = "user_id"

// Auth creates middleware that requires authentication.
// It checks for a valid user session and redirects to login if not authenticated.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadAdmin creates middleware that loads the current user and their admin
// record into the request context. The admin allow-list is re-checked on
// every request: a session whose email has been removed from the allow-list
// or deactivated is destroyed immediately, not at next sign-in.
// This should be used after Auth middleware.
func LoadAdmin(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			if err != nil {
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			admin, err := queries.GetActiveAdminByUserID(r.Context(), userID)
			if err != nil {
				// No active allow-list entry for this identity. Fail closed.
				slog.Warn("session for non-admin identity rejected",
					"user_id", userID,
					"path", r.URL.Path,
				)
				_ = sm.Destroy(r.Context())
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetAdmin retrieves the current admin record from the request context.
// Returns nil if no admin is in context.
func GetAdmin(r *http.Request) *model.AdminUser {
	admin, ok := r.Context().Value(ContextKeyAdmin).(model.AdminUser)
	if !ok {
		return nil
	}
	return &admin
}

// GetUserID returns the current user's ID from context, or 0 if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns a pointer to the current user's ID from context, or nil if not found.
// Useful for optional user ID parameters in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// GetAdminEmail returns the current admin's email from context, or empty string if not found.
func GetAdminEmail(r *http.Request) string {
	if admin := GetAdmin(r); admin != nil {
		return admin.Email
	}
	return ""
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}

// RequireCapability creates middleware that requires a role capability.
// The check function receives the current admin's role; a false result
// yields 403. If eventService is provided, denials are logged to the
// event log (visible in the admin dashboard).
func RequireCapability(check func(model.Role) bool, name string, eventService *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := GetAdmin(r)
			if admin == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !check(admin.Role) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"admin_email", admin.Email,
					"admin_role", admin.Role,
					"capability", name,
					"remote_addr", r.RemoteAddr,
				)

				if eventService != nil {
					metadata := map[string]any{
						"method":     r.Method,
						"status":     http.StatusForbidden,
						"admin_role": string(admin.Role),
						"capability": name,
					}
					_ = eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Access denied: insufficient permissions", GetUserIDPtr(r), r.RemoteAddr, r.URL.Path, metadata)
				}

				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireManageUsers creates middleware that requires the manage-users capability.
func RequireManageUsers(eventService *service.EventService) func(http.Handler) http.Handler {
	return RequireCapability(model.Role.CanManageUsers, "manage_users", eventService)
}

// RequireManageContent creates middleware that requires the manage-content capability.
func RequireManageContent(eventService *service.EventService) func(http.Handler) http.Handler {
	return RequireCapability(model.Role.CanManageContent, "manage_content", eventService)
}
