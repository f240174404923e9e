package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/flexibio/flexibio-go/internal/guard"
	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// UsersHandler handles admin allow-list management under /admin/users.
type UsersHandler struct {
	queries        *store.Queries
	guard          *guard.Guard
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, g *guard.Guard, renderer *render.Renderer, sm *scs.SessionManager) *UsersHandler {
	return &UsersHandler{
		queries:        store.New(db),
		guard:          g,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// UsersListData holds data for the admin users template.
type UsersListData struct {
	Admins     []model.AdminUser
	Identities []model.User
	Roles      []model.Role
	Caller     *model.AdminUser
}

// List handles GET /admin/users - displays the allow-list and the identities
// eligible for promotion.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.queries.ListAdminUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list admin users", "error", err)
		return
	}

	identities, err := h.guard.AvailableIdentities(r.Context())
	if err != nil {
		slog.Error("failed to list available identities", "error", err)
		// The list page still works without the promotion candidates.
	}

	if err := h.renderer.Render(w, r, "admin/users", render.TemplateData{
		Title: "Admin Users",
		Admin: middleware.GetAdmin(r),
		Data: UsersListData{
			Admins:     admins,
			Identities: identities,
			Roles:      model.ValidRoles,
			Caller:     middleware.GetAdmin(r),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render admin users", "error", err)
	}
}

// Create handles POST /admin/users - adds an allow-list entry. The entry may
// reference an existing identity or stand alone until its email first signs
// in via magic link.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetAdmin(r)
	if caller == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectUsers) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	if _, err := mail.ParseAddress(email); err != nil {
		flashError(w, r, h.renderer, redirectUsers, "A valid email address is required")
		return
	}

	role := model.Role(r.FormValue("role"))
	if !role.IsValid() {
		flashError(w, r, h.renderer, redirectUsers, "Invalid role")
		return
	}

	userID := util.ParseNullInt64(r.FormValue("user_id"))

	admin, err := h.guard.CreateAdminUser(r.Context(), *caller, userID, email, role)
	if err != nil {
		if errors.Is(err, guard.ErrInsufficientPermission) {
			flashError(w, r, h.renderer, redirectUsers, "You do not have permission to do that")
			return
		}
		slog.Error("failed to create admin user", "error", err, "email", email)
		flashError(w, r, h.renderer, redirectUsers, "Could not create admin user")
		return
	}

	slog.Info("admin user created", "admin_id", admin.ID, "email", admin.Email, "role", admin.Role, "by", caller.Email)
	flashSuccess(w, r, h.renderer, redirectUsers, "Admin user added")
}

// Update handles POST /admin/users/{id} - changes role or active flag.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetAdmin(r)
	if caller == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	id, ok := parseIDParam(w, r, h.renderer, redirectUsers)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectUsers) {
		return
	}

	role := model.Role(r.FormValue("role"))
	if !role.IsValid() {
		flashError(w, r, h.renderer, redirectUsers, "Invalid role")
		return
	}
	isActive := r.FormValue("is_active") == "on" || r.FormValue("is_active") == "true"

	// A super admin cannot deactivate their own entry; that would lock
	// everyone out once the other entries lapse.
	if id == caller.ID && !isActive {
		flashError(w, r, h.renderer, redirectUsers, "You cannot deactivate your own account")
		return
	}

	admin, err := h.guard.UpdateAdminUser(r.Context(), *caller, id, role, isActive)
	if err != nil {
		if errors.Is(err, guard.ErrInsufficientPermission) {
			flashError(w, r, h.renderer, redirectUsers, "You do not have permission to do that")
			return
		}
		slog.Error("failed to update admin user", "error", err, "admin_id", id)
		flashError(w, r, h.renderer, redirectUsers, "Could not update admin user")
		return
	}

	slog.Info("admin user updated", "admin_id", admin.ID, "role", admin.Role, "is_active", admin.IsActive, "by", caller.Email)
	flashSuccess(w, r, h.renderer, redirectUsers, "Admin user updated")
}
