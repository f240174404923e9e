package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/flexibio/flexibio-go/internal/cache"
	"github.com/flexibio/flexibio-go/internal/imaging"
	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// Allowed values for the constrained profile fields. Unknown values are
// rejected rather than coerced.
var (
	validBackgroundTypes = []string{"color", "gradient", "image"}
	validThemes          = []string{"default", "minimal", "dark", "vibrant"}
	validTwitterCards    = []string{"summary", "summary_large_image"}
	validRobots          = []string{"index,follow", "index,nofollow", "noindex,follow", "noindex,nofollow"}
)

// ProfileHandler handles profile and SEO settings routes under /admin/profile.
type ProfileHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	cache          cache.Cacher
	processor      *imaging.Processor
	suggester      *service.Suggester
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, c cache.Cacher, p *imaging.Processor, s *service.Suggester) *ProfileHandler {
	return &ProfileHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		cache:          c,
		processor:      p,
		suggester:      s,
	}
}

// ProfileFormData holds data for the profile settings template.
type ProfileFormData struct {
	Profile          *model.ProfileSettings
	BackgroundTypes  []string
	Themes           []string
	TwitterCards     []string
	RobotsDirectives []string
	SuggestEnabled   bool
}

// Form handles GET /admin/profile - displays the settings form.
func (h *ProfileHandler) Form(w http.ResponseWriter, r *http.Request) {
	var profile *model.ProfileSettings
	p, err := h.queries.GetProfileSettings(r.Context())
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "failed to load profile settings", "error", err)
			return
		}
	} else {
		profile = &p
	}

	if err := h.renderer.Render(w, r, "admin/profile", render.TemplateData{
		Title: "Profile",
		Admin: middleware.GetAdmin(r),
		Data: ProfileFormData{
			Profile:          profile,
			BackgroundTypes:  validBackgroundTypes,
			Themes:           validThemes,
			TwitterCards:     validTwitterCards,
			RobotsDirectives: validRobots,
			SuggestEnabled:   h.suggester != nil && h.suggester.Enabled(),
		},
	}); err != nil {
		logAndInternalError(w, "failed to render profile form", "error", err)
	}
}

// Update handles POST /admin/profile - replaces the profile settings row.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectProfile) {
		return
	}

	params, ok := h.profileFormValues(w, r)
	if !ok {
		return
	}

	// The profile image is managed by the upload endpoint, not the form.
	if current, err := h.queries.GetProfileSettings(r.Context()); err == nil {
		params.ProfileImage = current.ProfileImage
	}

	if _, err := h.queries.UpsertProfileSettings(r.Context(), params); err != nil {
		logAndInternalError(w, "failed to save profile settings", "error", err)
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("profile settings updated", "admin", middleware.GetAdminEmail(r))
	flashSuccess(w, r, h.renderer, redirectProfile, "Profile saved")
}

// UploadImage handles POST /admin/profile/upload - replaces the profile image.
func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		flashError(w, r, h.renderer, redirectProfile, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		flashError(w, r, h.renderer, redirectProfile, "No image file provided")
		return
	}
	defer file.Close()

	result, err := h.processor.ProcessProfileImage(file, header.Filename)
	if err != nil {
		slog.Warn("profile image rejected", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectProfile, "Could not process image: "+err.Error())
		return
	}

	current, err := h.queries.GetProfileSettings(r.Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to load profile settings", "error", err)
		return
	}
	params := upsertParamsFrom(&current)
	params.ProfileImage = util.NullStringFromValue("/uploads/" + result.FilePath)

	if _, err := h.queries.UpsertProfileSettings(r.Context(), params); err != nil {
		logAndInternalError(w, "failed to save profile image", "error", err)
		return
	}

	cache.InvalidatePublic(r.Context(), h.cache)

	slog.Info("profile image updated", "path", result.FilePath, "size", result.Size, "admin", middleware.GetAdminEmail(r))
	flashSuccess(w, r, h.renderer, redirectProfile, "Profile image updated")
}

// suggestRequest is the JSON body for the description suggestion endpoint.
type suggestRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// Suggest handles POST /admin/profile/suggest - generates an SEO description
// draft from the profile content. The draft is returned to the form; nothing
// is saved until the admin submits it.
func (h *ProfileHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil || !h.suggester.Enabled() {
		writeJSONError(w, http.StatusServiceUnavailable, "Suggestions are not configured")
		return
	}

	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	links, err := h.queries.ListActiveLinks(r.Context())
	if err != nil {
		slog.Error("failed to list links for suggestion", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	titles := make([]string, 0, len(links))
	for _, l := range links {
		titles = append(titles, l.Title)
	}

	description, err := h.suggester.SuggestDescription(r.Context(), req.DisplayName, req.Bio, titles)
	if err != nil {
		slog.Error("description suggestion failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Suggestion service unavailable")
		return
	}

	writeJSONSuccess(w, map[string]any{"description": description})
}

// profileFormValues extracts and validates the profile form into upsert
// params. Returns false if validation failed (redirect already performed).
func (h *ProfileHandler) profileFormValues(w http.ResponseWriter, r *http.Request) (store.UpsertProfileSettingsParams, bool) {
	fail := func(msg string) (store.UpsertProfileSettingsParams, bool) {
		flashError(w, r, h.renderer, redirectProfile, msg)
		return store.UpsertProfileSettingsParams{}, false
	}

	backgroundType := r.FormValue("background_type")
	if !contains(validBackgroundTypes, backgroundType) {
		return fail("Invalid background type")
	}
	theme := r.FormValue("theme")
	if !contains(validThemes, theme) {
		return fail("Invalid theme")
	}
	twitterCard := r.FormValue("twitter_card_type")
	if !contains(validTwitterCards, twitterCard) {
		return fail("Invalid Twitter card type")
	}
	robots := r.FormValue("robots_directive")
	if !contains(validRobots, robots) {
		return fail("Invalid robots directive")
	}

	canonical := strings.TrimSpace(r.FormValue("canonical_url"))
	if canonical != "" {
		if err := util.ValidateLinkURL(canonical); err != nil {
			return fail("Invalid canonical URL: " + err.Error())
		}
	}

	// A remote og:image is probed before it is saved so the social card
	// does not silently break.
	ogImage := strings.TrimSpace(r.FormValue("og_image"))
	if ogImage != "" && strings.HasPrefix(ogImage, "http") {
		if err := imaging.ProbeRemoteImage(r.Context(), ogImage); err != nil {
			slog.Warn("og:image probe failed", "error", err, "url", ogImage)
			return fail("The og:image URL does not point to a reachable image")
		}
	}

	nullField := func(name string) sql.NullString {
		return util.NullStringFromValue(strings.TrimSpace(r.FormValue(name)))
	}

	return store.UpsertProfileSettingsParams{
		DisplayName:        nullField("display_name"),
		Bio:                nullField("bio"),
		BackgroundType:     backgroundType,
		BackgroundValue:    r.FormValue("background_value"),
		Theme:              theme,
		CustomCSS:          nullField("custom_css"),
		SEOTitle:           nullField("seo_title"),
		SEODescription:     nullField("seo_description"),
		SEOKeywords:        nullField("seo_keywords"),
		OGTitle:            nullField("og_title"),
		OGDescription:      nullField("og_description"),
		OGImage:            util.NullStringFromValue(ogImage),
		TwitterCardType:    twitterCard,
		TwitterTitle:       nullField("twitter_title"),
		TwitterDescription: nullField("twitter_description"),
		TwitterImage:       nullField("twitter_image"),
		GoogleAnalyticsID:  nullField("google_analytics_id"),
		GoogleTagManagerID: nullField("google_tag_manager_id"),
		FacebookPixelID:    nullField("facebook_pixel_id"),
		// Custom code fields are injected verbatim into the public page.
		// They are admin-only input and deliberately not sanitized.
		CustomHeadCode:  util.NullStringFromValue(r.FormValue("custom_head_code")),
		CustomBodyCode:  util.NullStringFromValue(r.FormValue("custom_body_code")),
		RobotsDirective: robots,
		CanonicalURL:    util.NullStringFromValue(canonical),
		HideFooter:      r.FormValue("hide_footer") == "on" || r.FormValue("hide_footer") == "true",
	}, true
}

// upsertParamsFrom converts an existing profile row back into upsert params
// so a single field can be changed without losing the rest.
func upsertParamsFrom(p *model.ProfileSettings) store.UpsertProfileSettingsParams {
	if p == nil || p.ID == 0 {
		return store.UpsertProfileSettingsParams{
			BackgroundType:  "gradient",
			Theme:           "default",
			TwitterCardType: "summary_large_image",
			RobotsDirective: "index,follow",
		}
	}
	return store.UpsertProfileSettingsParams{
		DisplayName:        p.DisplayName,
		Bio:                p.Bio,
		ProfileImage:       p.ProfileImage,
		BackgroundType:     p.BackgroundType,
		BackgroundValue:    p.BackgroundValue,
		Theme:              p.Theme,
		CustomCSS:          p.CustomCSS,
		SEOTitle:           p.SEOTitle,
		SEODescription:     p.SEODescription,
		SEOKeywords:        p.SEOKeywords,
		OGTitle:            p.OGTitle,
		OGDescription:      p.OGDescription,
		OGImage:            p.OGImage,
		TwitterCardType:    p.TwitterCardType,
		TwitterTitle:       p.TwitterTitle,
		TwitterDescription: p.TwitterDescription,
		TwitterImage:       p.TwitterImage,
		GoogleAnalyticsID:  p.GoogleAnalyticsID,
		GoogleTagManagerID: p.GoogleTagManagerID,
		FacebookPixelID:    p.FacebookPixelID,
		CustomHeadCode:     p.CustomHeadCode,
		CustomBodyCode:     p.CustomBodyCode,
		RobotsDirective:    p.RobotsDirective,
		CanonicalURL:       p.CanonicalURL,
		HideFooter:         p.HideFooter,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
