package model

import (
	"database/sql"
	"time"
)

// Link is a single entry on the public profile page. A NULL URL marks the
// link as "coming soon": it renders disabled and is never tracked.
type Link struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	URL         sql.NullString `json:"url"`
	Description sql.NullString `json:"description"`
	IconValue   string         `json:"icon_value"`
	ShortCode   string         `json:"short_code"`
	IsActive    bool           `json:"is_active"`
	Position    int64          `json:"position"`
	ClickCount  int64          `json:"click_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ComingSoon reports whether the link is a placeholder without a target URL.
func (l Link) ComingSoon() bool {
	return !l.URL.Valid || l.URL.String == ""
}

// LinkClick is an append-only record of one public link activation.
type LinkClick struct {
	ID         int64          `json:"id"`
	LinkID     int64          `json:"link_id"`
	ClickedAt  time.Time      `json:"clicked_at"`
	UserAgent  sql.NullString `json:"user_agent"`
	Referrer   sql.NullString `json:"referrer"`
	DeviceType sql.NullString `json:"device_type"`
	Browser    sql.NullString `json:"browser"`
	OS         sql.NullString `json:"os"`
	IPAddress  sql.NullString `json:"ip_address"`
	Country    sql.NullString `json:"country"`
}

// LinkClicksDaily is one day's aggregated click count for a link.
type LinkClicksDaily struct {
	LinkID int64     `json:"link_id"`
	Day    time.Time `json:"day"`
	Clicks int64     `json:"clicks"`
}
