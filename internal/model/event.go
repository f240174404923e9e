package model

import (
	"database/sql"
	"time"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	EventCategoryAuth      = "auth"
	EventCategoryAdmin     = "admin"
	EventCategoryAnalytics = "analytics"
	EventCategorySystem    = "system"
)

// Event is one audit/event-log entry.
type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	Metadata  string        `json:"metadata"` // JSON object
	CreatedAt time.Time     `json:"created_at"`
}

// AuthToken is a single-use token backing the magic-link and password-reset
// flows. Only the SHA-256 of the secret is stored.
type AuthToken struct {
	ID        string       `json:"id"` // uuid
	Purpose   string       `json:"purpose"`
	Email     string       `json:"email"`
	TokenHash string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
	UsedAt    sql.NullTime `json:"used_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// Auth token purposes.
const (
	TokenPurposeMagicLink     = "magic_link"
	TokenPurposePasswordReset = "password_reset"
)
