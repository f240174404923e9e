package handler

import (
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flexibio/flexibio-go/internal/cache"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/seo"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// PublicHandler serves the visitor-facing surface: the profile page, the
// click redirect and the web manifest.
type PublicHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
	cache    cache.Cacher
	clicks   *service.ClickRecorder
	site     *seo.SiteConfig
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(db *sql.DB, renderer *render.Renderer, c cache.Cacher, clicks *service.ClickRecorder, site *seo.SiteConfig) *PublicHandler {
	return &PublicHandler{
		queries:  store.New(db),
		renderer: renderer,
		cache:    c,
		clicks:   clicks,
		site:     site,
	}
}

// ProfilePageData holds data for the public profile template.
type ProfilePageData struct {
	Profile *model.ProfileSettings
	Links   []model.Link
	Meta    *seo.TagSet
	BioHTML template.HTML
}

// ProfilePage handles GET / and serves the public profile page. The rendered
// page is cached; admin mutations invalidate it.
func (h *PublicHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if body, err := h.cache.Get(r.Context(), cache.KeyPublicPage); err == nil {
			writeHTML(w, body)
			return
		}
	}

	profile, err := h.loadProfile(r)
	if err != nil {
		logAndInternalError(w, "failed to load profile settings", "error", err)
		return
	}

	links, err := h.queries.ListActiveLinks(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list links", "error", err)
		return
	}

	data := ProfilePageData{
		Profile: profile,
		Links:   links,
		Meta:    seo.BuildTagSet(profile, h.site),
	}
	if profile != nil && profile.Bio.Valid {
		data.BioHTML = service.RenderBio(profile.Bio.String)
	}

	body, err := h.renderer.RenderBytes("public/profile", render.TemplateData{
		Title: data.Meta.Title,
		Data:  data,
	})
	if err != nil {
		logAndInternalError(w, "failed to render profile page", "error", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cache.KeyPublicPage, body, cache.PublicPageTTL); err != nil {
			slog.Warn("failed to cache public page", "error", err)
		}
	}

	writeHTML(w, body)
}

// Click handles GET /l/{code}. The visitor is redirected before the click is
// recorded; analytics failures never delay or break the redirect.
func (h *PublicHandler) Click(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !util.IsValidShortCode(code) {
		http.NotFound(w, r)
		return
	}

	link, err := h.queries.GetActiveLinkByShortCode(r.Context(), code)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("failed to look up short code", "error", err, "code", code)
		}
		http.NotFound(w, r)
		return
	}
	// Placeholder links have no destination and are never tracked.
	if link.ComingSoon() {
		http.NotFound(w, r)
		return
	}

	http.Redirect(w, r, link.URL.String, http.StatusFound)

	h.clicks.RecordAsync(service.ClickInfo{
		LinkID:    link.ID,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		ClientIP:  util.GetClientIP(r),
	})
}

// Manifest handles GET /manifest.webmanifest.
func (h *PublicHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if body, err := h.cache.Get(r.Context(), cache.KeyManifest); err == nil {
			writeManifest(w, body)
			return
		}
	}

	profile, err := h.loadProfile(r)
	if err != nil {
		logAndInternalError(w, "failed to load profile settings", "error", err)
		return
	}

	baseURL := ""
	if h.site != nil {
		baseURL = h.site.BaseURL
	}
	body, err := seo.MarshalManifest(seo.BuildManifest(profile, baseURL))
	if err != nil {
		logAndInternalError(w, "failed to build manifest", "error", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), cache.KeyManifest, body, cache.PublicPageTTL); err != nil {
			slog.Warn("failed to cache manifest", "error", err)
		}
	}

	writeManifest(w, body)
}

// loadProfile returns the profile settings row, or nil before first save.
func (h *PublicHandler) loadProfile(r *http.Request) (*model.ProfileSettings, error) {
	profile, err := h.queries.GetProfileSettings(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func writeManifest(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/manifest+json")
	_, _ = w.Write(body)
}
