package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/flexibio/flexibio-go/internal/middleware"
	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
)

// EventsPerPage is the number of event-log entries to display per page.
const EventsPerPage = 25

// analyticsWindowDays is the default daily series window.
const analyticsWindowDays = 30

// recentClicksLimit caps the recent activity list on the dashboard.
const recentClicksLimit = 20

// AdminHandler handles the dashboard, analytics and event log routes.
type AdminHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *AdminHandler {
	return &AdminHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
	}
}

// RecentClickRow is one row of the dashboard activity list.
type RecentClickRow struct {
	Click     model.LinkClick
	LinkTitle string
	Referrer  string
}

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	LinkCount    int
	ActiveCount  int
	TotalClicks  int64
	TopLinks     []model.Link
	RecentClicks []RecentClickRow
}

// Dashboard handles GET /admin - displays totals and recent activity.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	links, err := h.queries.ListLinks(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list links", "error", err)
		return
	}

	data := DashboardData{LinkCount: len(links)}
	titles := make(map[int64]string, len(links))
	for _, l := range links {
		titles[l.ID] = l.Title
		data.TotalClicks += l.ClickCount
		if l.IsActive {
			data.ActiveCount++
		}
	}
	data.TopLinks = topLinksByClicks(links, 5)

	clicks, err := h.queries.ListRecentClicks(r.Context(), recentClicksLimit)
	if err != nil {
		slog.Error("failed to list recent clicks", "error", err)
	}
	for _, c := range clicks {
		row := RecentClickRow{Click: c, LinkTitle: titles[c.LinkID]}
		if c.Referrer.Valid {
			row.Referrer = service.ReferrerDomain(c.Referrer.String)
		}
		data.RecentClicks = append(data.RecentClicks, row)
	}

	if err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title: "Dashboard",
		Admin: middleware.GetAdmin(r),
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render dashboard", "error", err)
	}
}

// LinkAnalyticsData holds data for the per-link analytics template.
type LinkAnalyticsData struct {
	Link       model.Link
	TotalCount int64
	Daily      []model.LinkClicksDaily
	WindowDays int
}

// LinkAnalytics handles GET /admin/analytics/{id} - displays the daily click
// series for one link. The series comes from the nightly rollup; today's
// clicks appear after the next run.
func (h *AdminHandler) LinkAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, h.renderer, redirectLinks)
	if !ok {
		return
	}

	link, ok := requireEntityWithRedirect(w, r, h.renderer, redirectLinks, "link", id,
		func(id int64) (model.Link, error) { return h.queries.GetLinkByID(r.Context(), id) })
	if !ok {
		return
	}

	total, err := h.queries.CountClicksForLink(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to count clicks", "error", err, "link_id", id)
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -analyticsWindowDays)
	daily, err := h.queries.ListDailyClicks(r.Context(), id, since)
	if err != nil {
		logAndInternalError(w, "failed to list daily clicks", "error", err, "link_id", id)
		return
	}

	if err := h.renderer.Render(w, r, "admin/analytics", render.TemplateData{
		Title: "Analytics: " + link.Title,
		Admin: middleware.GetAdmin(r),
		Data: LinkAnalyticsData{
			Link:       link,
			TotalCount: total,
			Daily:      daily,
			WindowDays: analyticsWindowDays,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render analytics", "error", err)
	}
}

// EventsListData holds data for the event log template.
type EventsListData struct {
	Events      []model.Event
	CurrentPage int
	TotalPages  int
	TotalCount  int64
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
}

// Events handles GET /admin/events - displays a paginated event log.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}

	totalCount, err := h.queries.CountEvents(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	totalPages := int((totalCount + EventsPerPage - 1) / EventsPerPage)
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Limit:  EventsPerPage,
		Offset: int64((page - 1) * EventsPerPage),
	})
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title: "Event Log",
		Admin: middleware.GetAdmin(r),
		Data: EventsListData{
			Events:      events,
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  totalCount,
			HasPrev:     page > 1,
			HasNext:     page < totalPages,
			PrevPage:    page - 1,
			NextPage:    page + 1,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render event log", "error", err)
	}
}

// topLinksByClicks returns up to n links sorted by click count descending.
// Insertion sort on a copied slice keeps the display order list untouched.
func topLinksByClicks(links []model.Link, n int) []model.Link {
	sorted := make([]model.Link, len(links))
	copy(sorted, links)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].ClickCount > sorted[j-1].ClickCount; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
