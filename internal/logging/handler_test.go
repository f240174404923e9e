package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "flexibio-logging-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	})
	return db
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []model.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), store.ListEventsParams{
		Limit:  10,
		Offset: 0,
	})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandlerErrorLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Error("database connection failed", "host", "localhost")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != model.EventLevelError {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelError)
	}
	if events[0].Message != "database connection failed" {
		t.Errorf("Message = %q", events[0].Message)
	}
	if !strings.Contains(events[0].Metadata, `"host":"localhost"`) {
		t.Errorf("Metadata = %q, want host attribute", events[0].Metadata)
	}
}

func TestEventLogHandlerInfoNotForwarded(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Info("routine startup message")

	if events := listEvents(t, db); len(events) != 0 {
		t.Fatalf("expected no events for info log, got %d", len(events))
	}
}

func TestEventLogHandlerCustomLevel(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("tracked info message")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != model.EventLevelInfo {
		t.Errorf("Level = %q, want %q", events[0].Level, model.EventLevelInfo)
	}
}

func TestEventLogHandlerCategoryAttr(t *testing.T) {
	db := testDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Warn("something odd", "category", model.EventCategoryAnalytics)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != model.EventCategoryAnalytics {
		t.Errorf("Category = %q, want %q", events[0].Category, model.EventCategoryAnalytics)
	}
	if strings.Contains(events[0].Metadata, "category") {
		t.Errorf("category attr should be excluded from metadata: %q", events[0].Metadata)
	}
}

func TestEventLogHandlerInferredCategory(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login failed for user", model.EventCategoryAuth},
		{"click rollup failed", model.EventCategoryAnalytics},
		{"profile update rejected", model.EventCategoryAdmin},
		{"disk nearly full", model.EventCategorySystem},
	}

	for _, tt := range tests {
		db := testDB(t)
		logger := slog.New(NewEventLogHandler(discardHandler{}, db))

		logger.Warn(tt.message)

		events := listEvents(t, db)
		if len(events) != 1 {
			t.Fatalf("%q: expected 1 event, got %d", tt.message, len(events))
		}
		if events[0].Category != tt.want {
			t.Errorf("%q: Category = %q, want %q", tt.message, events[0].Category, tt.want)
		}
	}
}

func TestEscapeJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`say "hi"`, `say \"hi\"`},
		{"a\nb", `a\nb`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeJSON(tt.in); got != tt.want {
			t.Errorf("escapeJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
