// Package service provides application services on top of the store layer:
// the event log, click recording, and the optional SEO suggester.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
	"github.com/flexibio/flexibio-go/internal/store"
)

// EventService writes structured entries to the event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// Log writes one event-log entry. Marshal failures of the metadata fall back
// to an empty object; event logging must never fail a request.
func (s *EventService) Log(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		} else {
			slog.Error("failed to marshal event metadata", "error", err)
		}
	}

	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    uid,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// LogAuthEvent records an authentication-related event with client context.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, clientIP, requestURL string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if clientIP != "" {
		metadata["ip"] = clientIP
	}
	if requestURL != "" {
		metadata["url"] = requestURL
	}
	return s.Log(ctx, level, model.EventCategoryAuth, message, userID, metadata)
}
