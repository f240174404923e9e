package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/flexibio/flexibio-go/internal/cache"
	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// MaxLinkTitleLength caps the link title field.
const MaxLinkTitleLength = 120

// MaxLinkDescriptionLength caps the link description field.
const MaxLinkDescriptionLength = 500

// shortCodeRetries bounds the random suffix loop when a derived code collides.
const shortCodeRetries = 5

// LinksHandler handles link management routes under /admin/links.
type LinksHandler struct {
	db             *sql.DB
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cache          cache.Cacher
}

// NewLinksHandler creates a new LinksHandler.
func NewLinksHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, c cache.Cacher) *LinksHandler {
	return &LinksHandler{
		db:             db,
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cache:          c,
	}
}

// LinksListData holds data for the links list template.
type LinksListData struct {
	Links []model.Link
}

// LinkFormData holds data for the link create/edit form template.
type LinkFormData struct {
	Link      *model.Link
	IsEdit    bool
	FormTitle string
}

// List handles GET /admin/links - displays all links in display order.
func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.queries.ListLinks(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list links", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/links", render.TemplateData{
		Title: "Links",
		Admin: middleware.GetAdmin(r),
		Data:  LinksListData{Links: links},
	}); err != nil {
		logAndInternalError(w, "failed to render links list", "error", err)
	}
}

// NewForm handles GET /admin/links/new - displays the create form.
func (h *LinksHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/link_form", render.TemplateData{
		Title: "New Link",
		Admin: middleware.GetAdmin(r),
		Data:  LinkFormData{FormTitle: "New Link"},
	}); err != nil {
		logAndInternalError(w, "failed to render link form", "error", err)
	}
}

// Create handles POST /admin/links - creates a new link.
func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLinks) {
		return
	}

	form, ok := h.linkFormValues(w, r, redirectLinks+RouteSuffixNew)
	if !ok {
		return
	}

	shortCode, err := h.availableShortCode(r, form.title)
	if err != nil {
		logAndInternalError(w, "failed to allocate short code", "error", err)
		return
	}

	link, err := h.queries.CreateLink(r.Context(), store.CreateLinkParams{
		Title:       form.title,
		URL:         util.NullStringFromValue(form.url),
		Description: util.NullStringFromValue(form.description),
		IconValue:   form.icon,
		ShortCode:   shortCode,
		IsActive:    form.isActive,
	})
	if err != nil {
		logAndInternalError(w, "failed to create link", "error", err)
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("link created", "link_id", link.ID, "short_code", link.ShortCode, "admin", middleware.GetAdminEmail(r))
	flashSuccess(w, r, h.renderer, redirectLinks, "Link created")
}

// EditForm handles GET /admin/links/{id} - displays the edit form.
func (h *LinksHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.renderer, redirectLinks)
	if !ok {
		return
	}

	link, ok := requireEntityWithRedirect(w, r, h.renderer, redirectLinks, "link", id,
		func(id int64) (model.Link, error) { return h.queries.GetLinkByID(r.Context(), id) })
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, "admin/link_form", render.TemplateData{
		Title: "Edit Link",
		Admin: middleware.GetAdmin(r),
		Data:  LinkFormData{Link: &link, IsEdit: true, FormTitle: "Edit Link"},
	}); err != nil {
		logAndInternalError(w, "failed to render link form", "error", err)
	}
}

// Update handles POST /admin/links/{id} - updates a link.
// The short code is immutable after creation so shared URLs keep working.
func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.renderer, redirectLinks)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectLinks) {
		return
	}

	form, ok := h.linkFormValues(w, r, fmt.Sprintf("%s/%d", redirectLinks, id))
	if !ok {
		return
	}

	if _, ok := requireEntityWithRedirect(w, r, h.renderer, redirectLinks, "link", id,
		func(id int64) (model.Link, error) { return h.queries.GetLinkByID(r.Context(), id) }); !ok {
		return
	}

	if _, err := h.queries.UpdateLink(r.Context(), store.UpdateLinkParams{
		ID:          id,
		Title:       form.title,
		URL:         util.NullStringFromValue(form.url),
		Description: util.NullStringFromValue(form.description),
		IconValue:   form.icon,
		IsActive:    form.isActive,
	}); err != nil {
		logAndInternalError(w, "failed to update link", "error", err, "link_id", id)
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("link updated", "link_id", id, "admin", middleware.GetAdminEmail(r))
	flashSuccess(w, r, h.renderer, redirectLinks, "Link updated")
}

// Delete handles POST /admin/links/{id}/delete - deletes a link and its
// analytics rows.
func (h *LinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.renderer, redirectLinks)
	if !ok {
		return
	}

	if _, ok := requireEntityWithRedirect(w, r, h.renderer, redirectLinks, "link", id,
		func(id int64) (model.Link, error) { return h.queries.GetLinkByID(r.Context(), id) }); !ok {
		return
	}

	if err := h.queries.DeleteLink(r.Context(), id); err != nil {
		logAndInternalError(w, "failed to delete link", "error", err, "link_id", id)
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("link deleted", "link_id", id, "admin", middleware.GetAdminEmail(r))
	flashSuccess(w, r, h.renderer, redirectLinks, "Link deleted")
}

// reorderRequest is the JSON body for the reorder endpoint.
type reorderRequest struct {
	OrderedIDs []int64 `json:"ordered_ids"`
}

// Reorder handles POST /admin/links/reorder - applies a new display order.
// The whole permutation is applied in one transaction; a stale or partial
// ID list rejects the request without changing anything.
func (h *LinksHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.OrderedIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "ordered_ids is required")
		return
	}

	if err := store.ReorderLinks(r.Context(), h.db, req.OrderedIDs); err != nil {
		slog.Warn("link reorder rejected", "error", err, "admin", middleware.GetAdminEmail(r))
		writeJSONError(w, http.StatusConflict, "Link order is out of date, reload and try again")
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("links reordered", "count", len(req.OrderedIDs), "admin", middleware.GetAdminEmail(r))
	writeJSONSuccess(w, nil)
}

// linkForm holds validated link form values.
type linkForm struct {
	title       string
	url         string
	description string
	icon        string
	isActive    bool
}

// linkFormValues extracts and validates the shared link form fields.
// Returns false if validation failed (redirect already performed).
func (h *LinksHandler) linkFormValues(w http.ResponseWriter, r *http.Request, redirectURL string) (linkForm, bool) {
	form := linkForm{
		title:       strings.TrimSpace(r.FormValue("title")),
		url:         strings.TrimSpace(r.FormValue("url")),
		description: strings.TrimSpace(r.FormValue("description")),
		icon:        strings.TrimSpace(r.FormValue("icon_value")),
		isActive:    r.FormValue("is_active") == "on" || r.FormValue("is_active") == "true",
	}

	if form.title == "" {
		flashError(w, r, h.renderer, redirectURL, "Title is required")
		return linkForm{}, false
	}
	if len(form.title) > MaxLinkTitleLength {
		flashError(w, r, h.renderer, redirectURL, "Title is too long")
		return linkForm{}, false
	}
	if len(form.description) > MaxLinkDescriptionLength {
		flashError(w, r, h.renderer, redirectURL, "Description is too long")
		return linkForm{}, false
	}
	// An empty URL is allowed: the link renders as a "coming soon"
	// placeholder until a destination is set.
	if form.url != "" {
		if err := util.ValidateLinkURL(form.url); err != nil {
			flashError(w, r, h.renderer, redirectURL, "Invalid URL: "+err.Error())
			return linkForm{}, false
		}
	}

	return form, true
}

// availableShortCode derives a short code from the title, falling back to
// random codes while the derived one is taken.
func (h *LinksHandler) availableShortCode(r *http.Request, title string) (string, error) {
	code := util.ShortCodeFromTitle(title)
	for i := 0; i < shortCodeRetries; i++ {
		taken, err := h.queries.ShortCodeExists(r.Context(), code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		code = util.RandomShortCode(8)
	}
	return "", fmt.Errorf("no available short code after %d attempts", shortCodeRetries)
}

// parseIDParam parses the {id} route parameter, redirecting with an error
// flash on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		flashError(w, r, renderer, redirectURL, "Invalid ID")
		return 0, false
	}
	return id, true
}
