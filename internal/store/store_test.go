package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "flexibio-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestLink(t *testing.T, q *Queries, title, url string) model.Link {
	t.Helper()

	link, err := q.CreateLink(context.Background(), CreateLinkParams{
		Title:     title,
		URL:       sql.NullString{String: url, Valid: url != ""},
		ShortCode: title + "-code",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	return link
}

func TestCreateLink(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	link, err := q.CreateLink(ctx, CreateLinkParams{
		Title:       "My Blog",
		URL:         sql.NullString{String: "https://blog.example.com", Valid: true},
		Description: sql.NullString{String: "Posts about things", Valid: true},
		IconValue:   "pencil",
		ShortCode:   "my-blog",
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}

	if link.ID == 0 {
		t.Error("link.ID should not be 0")
	}
	if link.Title != "My Blog" {
		t.Errorf("Title = %q, want %q", link.Title, "My Blog")
	}
	if link.Position != 1 {
		t.Errorf("Position = %d, want 1", link.Position)
	}
	if link.ClickCount != 0 {
		t.Errorf("ClickCount = %d, want 0", link.ClickCount)
	}

	second := createTestLink(t, q, "second", "https://example.com/2")
	if second.Position != 2 {
		t.Errorf("second link Position = %d, want 2", second.Position)
	}
}

func TestCreateLink_ComingSoon(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	link := createTestLink(t, q, "teaser", "")

	if !link.ComingSoon() {
		t.Error("link without URL should be coming soon")
	}
}

func TestGetActiveLinkByShortCode(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := createTestLink(t, q, "findme", "https://example.com")

	found, err := q.GetActiveLinkByShortCode(ctx, created.ShortCode)
	if err != nil {
		t.Fatalf("GetActiveLinkByShortCode: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}

	// Deactivated links must not resolve
	_, err = q.UpdateLink(ctx, UpdateLinkParams{
		ID:       created.ID,
		Title:    created.Title,
		URL:      created.URL,
		IsActive: false,
	})
	if err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	if _, err := q.GetActiveLinkByShortCode(ctx, created.ShortCode); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("deactivated link lookup err = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteLink(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	link := createTestLink(t, q, "doomed", "https://example.com")

	// Attach a click event so we can verify the cascade
	err := q.CreateLinkClick(ctx, CreateLinkClickParams{LinkID: link.ID, ClickedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateLinkClick: %v", err)
	}

	if err := q.DeleteLink(ctx, link.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
	if _, err := q.GetLinkByID(ctx, link.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("deleted link lookup err = %v, want sql.ErrNoRows", err)
	}

	n, err := q.CountClicksForLink(ctx, link.ID)
	if err != nil {
		t.Fatalf("CountClicksForLink: %v", err)
	}
	if n != 0 {
		t.Errorf("clicks after delete = %d, want 0", n)
	}
}

func TestIncrementLinkClickCount(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	link := createTestLink(t, q, "popular", "https://example.com")

	for i := 0; i < 3; i++ {
		if err := q.IncrementLinkClickCount(ctx, link.ID); err != nil {
			t.Fatalf("IncrementLinkClickCount: %v", err)
		}
	}

	got, err := q.GetLinkByID(ctx, link.ID)
	if err != nil {
		t.Fatalf("GetLinkByID: %v", err)
	}
	if got.ClickCount != 3 {
		t.Errorf("ClickCount = %d, want 3", got.ClickCount)
	}
}

func TestReorderLinks(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createTestLink(t, q, "a", "https://example.com/a")
	b := createTestLink(t, q, "b", "https://example.com/b")
	c := createTestLink(t, q, "c", "https://example.com/c")

	if err := ReorderLinks(ctx, db, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("ReorderLinks: %v", err)
	}

	links, err := q.ListLinks(ctx)
	if err != nil {
		t.Fatalf("ListLinks: %v", err)
	}
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i, link := range links {
		if link.ID != wantOrder[i] {
			t.Errorf("position %d has link %d, want %d", i+1, link.ID, wantOrder[i])
		}
		if link.Position != int64(i+1) {
			t.Errorf("link %d Position = %d, want %d", link.ID, link.Position, i+1)
		}
	}
}

func TestReorderLinks_UnknownIDRollsBack(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createTestLink(t, q, "a", "https://example.com/a")
	b := createTestLink(t, q, "b", "https://example.com/b")

	// Simulates a stale admin list: one id was deleted by another session
	err := ReorderLinks(ctx, db, []int64{b.ID, a.ID, 9999})
	if err == nil {
		t.Fatal("ReorderLinks with unknown id should fail")
	}

	// Original order must be untouched
	links, err := q.ListLinks(ctx)
	if err != nil {
		t.Fatalf("ListLinks: %v", err)
	}
	if links[0].ID != a.ID || links[1].ID != b.ID {
		t.Errorf("order changed after failed reorder: got [%d %d], want [%d %d]",
			links[0].ID, links[1].ID, a.ID, b.ID)
	}
}

func TestUpsertProfileSettings(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	first, err := q.UpsertProfileSettings(ctx, UpsertProfileSettingsParams{
		DisplayName:     sql.NullString{String: "Jane", Valid: true},
		BackgroundType:  "gradient",
		Theme:           "default",
		TwitterCardType: "summary_large_image",
		RobotsDirective: "index,follow",
	})
	if err != nil {
		t.Fatalf("UpsertProfileSettings: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("ID = %d, want 1", first.ID)
	}

	second, err := q.UpsertProfileSettings(ctx, UpsertProfileSettingsParams{
		DisplayName:     sql.NullString{String: "Jane Doe", Valid: true},
		BackgroundType:  "color",
		BackgroundValue: "#112233",
		Theme:           "dark",
		TwitterCardType: "summary",
		RobotsDirective: "noindex,nofollow",
	})
	if err != nil {
		t.Fatalf("second UpsertProfileSettings: %v", err)
	}
	if second.ID != 1 {
		t.Errorf("second ID = %d, want 1", second.ID)
	}
	if second.DisplayName.String != "Jane Doe" {
		t.Errorf("DisplayName = %q, want %q", second.DisplayName.String, "Jane Doe")
	}
	if second.Theme != "dark" {
		t.Errorf("Theme = %q, want %q", second.Theme, "dark")
	}

	// Still exactly one row
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM profile_settings`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 1 {
		t.Errorf("profile_settings rows = %d, want 1", n)
	}
}

func TestRollupClicksForDay(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	link := createTestLink(t, q, "tracked", "https://example.com")

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		err := q.CreateLinkClick(ctx, CreateLinkClickParams{
			LinkID:    link.ID,
			ClickedAt: day.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateLinkClick: %v", err)
		}
	}

	if err := q.RollupClicksForDay(ctx, day); err != nil {
		t.Fatalf("RollupClicksForDay: %v", err)
	}
	// Re-running must overwrite, not double-count
	if err := q.RollupClicksForDay(ctx, day); err != nil {
		t.Fatalf("second RollupClicksForDay: %v", err)
	}

	daily, err := q.ListDailyClicks(ctx, link.ID, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("ListDailyClicks: %v", err)
	}
	if len(daily) != 1 {
		t.Fatalf("daily rows = %d, want 1", len(daily))
	}
	if daily[0].Clicks != 4 {
		t.Errorf("Clicks = %d, want 4", daily[0].Clicks)
	}
}

func TestCreateAdminUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	admin, err := q.CreateAdminUser(ctx, CreateAdminUserParams{
		Email: "boss@example.com",
		Role:  model.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("CreateAdminUser: %v", err)
	}
	if !admin.IsActive {
		t.Error("new admin should be active")
	}
	if admin.Role != model.RoleSuperAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, model.RoleSuperAdmin)
	}

	// Role values outside the closed set are rejected by the schema
	_, err = q.CreateAdminUser(ctx, CreateAdminUserParams{
		Email: "weird@example.com",
		Role:  model.Role("owner"),
	})
	if err == nil {
		t.Error("CreateAdminUser with invalid role should fail")
	}
}

func TestGetActiveAdminByEmail_Inactive(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	admin, err := q.CreateAdminUser(ctx, CreateAdminUserParams{
		Email: "gone@example.com",
		Role:  model.RoleEditor,
	})
	if err != nil {
		t.Fatalf("CreateAdminUser: %v", err)
	}
	if _, err := q.UpdateAdminUser(ctx, UpdateAdminUserParams{
		ID:       admin.ID,
		Role:     admin.Role,
		IsActive: false,
	}); err != nil {
		t.Fatalf("UpdateAdminUser: %v", err)
	}

	if _, err := q.GetActiveAdminByEmail(ctx, "gone@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("inactive admin lookup err = %v, want sql.ErrNoRows", err)
	}
}

func TestAuthTokenLifecycle(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	err := q.CreateAuthToken(ctx, CreateAuthTokenParams{
		ID:        "tok-1",
		Purpose:   "magic_link",
		Email:     "me@example.com",
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateAuthToken: %v", err)
	}

	tok, err := q.GetAuthToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetAuthToken: %v", err)
	}
	if tok.UsedAt.Valid {
		t.Error("fresh token should be unused")
	}

	n, err := q.MarkAuthTokenUsed(ctx, "tok-1")
	if err != nil {
		t.Fatalf("MarkAuthTokenUsed: %v", err)
	}
	if n != 1 {
		t.Errorf("MarkAuthTokenUsed rows = %d, want 1", n)
	}

	// Second redemption must not succeed
	n, err = q.MarkAuthTokenUsed(ctx, "tok-1")
	if err != nil {
		t.Fatalf("second MarkAuthTokenUsed: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkAuthTokenUsed rows = %d, want 0", n)
	}
}

func TestPurgeExpiredAuthTokens(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	fresh := CreateAuthTokenParams{
		ID: "fresh", Purpose: "magic_link", Email: "a@example.com",
		TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour),
	}
	stale := CreateAuthTokenParams{
		ID: "stale", Purpose: "password_reset", Email: "b@example.com",
		TokenHash: "h2", ExpiresAt: time.Now().Add(-time.Hour),
	}
	for _, p := range []CreateAuthTokenParams{fresh, stale} {
		if err := q.CreateAuthToken(ctx, p); err != nil {
			t.Fatalf("CreateAuthToken %s: %v", p.ID, err)
		}
	}

	n, err := q.PurgeExpiredAuthTokens(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredAuthTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := q.GetAuthToken(ctx, "fresh"); err != nil {
		t.Errorf("fresh token should survive purge: %v", err)
	}
	if _, err := q.GetAuthToken(ctx, "stale"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("stale token lookup err = %v, want sql.ErrNoRows", err)
	}
}

func TestSeedInitialAdmin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := SeedInitialAdmin(ctx, db, "first@example.com", "seed-password-1"); err != nil {
		t.Fatalf("SeedInitialAdmin: %v", err)
	}

	admin, err := q.GetActiveAdminByEmail(ctx, "first@example.com")
	if err != nil {
		t.Fatalf("GetActiveAdminByEmail: %v", err)
	}
	if admin.Role != model.RoleSuperAdmin {
		t.Errorf("seeded Role = %q, want %q", admin.Role, model.RoleSuperAdmin)
	}

	// Second run is a no-op once any admin exists
	if err := SeedInitialAdmin(ctx, db, "other@example.com", "seed-password-2"); err != nil {
		t.Fatalf("second SeedInitialAdmin: %v", err)
	}
	if _, err := q.GetActiveAdminByEmail(ctx, "other@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second seed created an admin, want no-op")
	}
}
