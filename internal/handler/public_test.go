package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flexibio/flexibio-go/internal/cache"
	"github.com/flexibio/flexibio-go/internal/seo"
	"github.com/flexibio/flexibio-go/internal/service"
	"github.com/flexibio/flexibio-go/internal/store"
)

func testPublicHandler(t *testing.T, db *sql.DB, c cache.Cacher) *PublicHandler {
	t.Helper()

	sm := testSessionManager(t)
	return NewPublicHandler(db, testRenderer(t, sm), c,
		service.NewClickRecorder(db, nil), &seo.SiteConfig{BaseURL: "https://example.com"})
}

func TestProfilePage(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	q := store.New(db)
	ctx := context.Background()
	_, err := q.UpsertProfileSettings(ctx, store.UpsertProfileSettingsParams{
		DisplayName:     sql.NullString{String: "Jane", Valid: true},
		Bio:             sql.NullString{String: "I make **things**.", Valid: true},
		BackgroundType:  "gradient",
		Theme:           "default",
		TwitterCardType: "summary_large_image",
		RobotsDirective: "index,follow",
	})
	if err != nil {
		t.Fatalf("UpsertProfileSettings: %v", err)
	}
	createTestLink(t, db, "Blog", "https://blog.example.com", "blog", true)
	createTestLink(t, db, "Hidden", "https://hidden.example.com", "hidden", false)
	createTestLink(t, db, "Soon", "", "soon", true)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ProfilePage(w, r)

	assertStatus(t, w.Code, 200)
	body := w.Body.String()

	if !strings.Contains(body, "Jane") {
		t.Error("page should show the display name")
	}
	if !strings.Contains(body, "/l/blog") {
		t.Error("active link should point at its redirect")
	}
	if strings.Contains(body, "hidden.example.com") {
		t.Error("inactive links must not appear")
	}
	if !strings.Contains(body, "<strong>things</strong>") {
		t.Error("bio markdown should be rendered")
	}
	if strings.Contains(body, "/l/soon\"") {
		t.Error("coming-soon links must not be clickable")
	}
	if !strings.Contains(body, `name="robots" content="index,follow"`) {
		t.Error("robots meta tag missing")
	}
}

func TestProfilePageEmptyDatabase(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ProfilePage(w, r)

	assertStatus(t, w.Code, 200)
	if !strings.Contains(w.Body.String(), "Personal Links") {
		t.Error("empty profile should fall back to the default title")
	}
}

func TestProfilePageCached(t *testing.T) {
	db := testDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	defer c.Close()
	h := testPublicHandler(t, db, c)

	createTestLink(t, db, "Blog", "https://blog.example.com", "blog", true)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ProfilePage(w, r)
	assertStatus(t, w.Code, 200)

	// A link added without invalidation is not visible until the TTL runs
	// out; the page is served from cache.
	createTestLink(t, db, "New", "https://new.example.com", "new", true)

	w = httptest.NewRecorder()
	h.ProfilePage(w, r)
	if strings.Contains(w.Body.String(), "new.example.com") {
		t.Error("second request should be served from cache")
	}

	cache.InvalidatePublic(context.Background(), c)

	w = httptest.NewRecorder()
	h.ProfilePage(w, r)
	if !strings.Contains(w.Body.String(), "new.example.com") {
		t.Error("invalidation should refresh the page")
	}
}

func TestClickRedirect(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	id := createTestLink(t, db, "Blog", "https://blog.example.com", "blog", true)

	r := httptest.NewRequest("GET", "/l/blog", nil)
	r = requestWithURLParams(r, map[string]string{"code": "blog"})
	w := httptest.NewRecorder()
	h.Click(w, r)

	assertStatus(t, w.Code, 302)
	if got := w.Header().Get("Location"); got != "https://blog.example.com" {
		t.Errorf("Location = %q, want %q", got, "https://blog.example.com")
	}

	// The click is recorded off the request path
	q := store.New(db)
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := q.CountClicksForLink(context.Background(), id)
		if err == nil && n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("click was not recorded, count = %d, err = %v", n, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	link, err := q.GetLinkByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetLinkByID: %v", err)
	}
	if link.ClickCount != 1 {
		t.Errorf("ClickCount = %d, want 1", link.ClickCount)
	}
}

func TestClickUnknownCode(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	r := httptest.NewRequest("GET", "/l/nothing", nil)
	r = requestWithURLParams(r, map[string]string{"code": "nothing"})
	w := httptest.NewRecorder()
	h.Click(w, r)

	assertStatus(t, w.Code, 404)
}

func TestClickInvalidCode(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	r := httptest.NewRequest("GET", "/l/NOT%20VALID", nil)
	r = requestWithURLParams(r, map[string]string{"code": "NOT VALID"})
	w := httptest.NewRecorder()
	h.Click(w, r)

	assertStatus(t, w.Code, 404)
}

func TestClickComingSoonLink(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	id := createTestLink(t, db, "Soon", "", "soon", true)

	r := httptest.NewRequest("GET", "/l/soon", nil)
	r = requestWithURLParams(r, map[string]string{"code": "soon"})
	w := httptest.NewRecorder()
	h.Click(w, r)

	assertStatus(t, w.Code, 404)

	n, err := store.New(db).CountClicksForLink(context.Background(), id)
	if err != nil {
		t.Fatalf("CountClicksForLink: %v", err)
	}
	if n != 0 {
		t.Errorf("placeholder clicks recorded = %d, want 0", n)
	}
}

func TestClickInactiveLink(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	createTestLink(t, db, "Old", "https://old.example.com", "old", false)

	r := httptest.NewRequest("GET", "/l/old", nil)
	r = requestWithURLParams(r, map[string]string{"code": "old"})
	w := httptest.NewRecorder()
	h.Click(w, r)

	assertStatus(t, w.Code, 404)
}

func TestManifest(t *testing.T) {
	db := testDB(t)
	h := testPublicHandler(t, db, nil)

	r := httptest.NewRequest("GET", "/manifest.webmanifest", nil)
	w := httptest.NewRecorder()
	h.Manifest(w, r)

	assertStatus(t, w.Code, 200)
	if got := w.Header().Get("Content-Type"); got != "application/manifest+json" {
		t.Errorf("Content-Type = %q", got)
	}

	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m["name"] == "" {
		t.Error("manifest name is empty")
	}
}
