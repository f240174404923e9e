package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/flexibio/flexibio-go/internal/render"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/web"
)

// testDB creates an in-memory SQLite database with the full schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:?_time_format=sqlite")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// One connection so every statement sees the same in-memory database
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testRenderer builds a renderer from the embedded templates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("loading templates: %v", err)
	}
	r, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
	})
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}
	return r
}

func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// createTestLink inserts a link directly and returns its id.
func createTestLink(t *testing.T, db *sql.DB, title, url, shortCode string, active bool) int64 {
	t.Helper()

	q := store.New(db)
	link, err := q.CreateLink(context.Background(), store.CreateLinkParams{
		Title:     title,
		URL:       sql.NullString{String: url, Valid: url != ""},
		ShortCode: shortCode,
		IsActive:  active,
	})
	if err != nil {
		t.Fatalf("creating test link: %v", err)
	}
	return link.ID
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// assertStatus checks the response status code.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
