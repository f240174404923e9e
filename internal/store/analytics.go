package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

// CreateLinkClickParams holds parameters for CreateLinkClick.
type CreateLinkClickParams struct {
	LinkID     int64
	ClickedAt  time.Time
	UserAgent  sql.NullString
	Referrer   sql.NullString
	DeviceType sql.NullString
	Browser    sql.NullString
	OS         sql.NullString
	IPAddress  sql.NullString
	Country    sql.NullString
}

// CreateLinkClick appends one click event. Events are never updated or
// deleted by the application.
func (q *Queries) CreateLinkClick(ctx context.Context, arg CreateLinkClickParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO link_analytics (link_id, clicked_at, user_agent, referrer,
		                             device_type, browser, os, ip_address, country)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.LinkID, arg.ClickedAt, arg.UserAgent, arg.Referrer,
		arg.DeviceType, arg.Browser, arg.OS, arg.IPAddress, arg.Country)
	return err
}

// CountClicksForLink returns the number of recorded click events for a link.
func (q *Queries) CountClicksForLink(ctx context.Context, linkID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM link_analytics WHERE link_id = ?`, linkID).Scan(&n)
	return n, err
}

// ListRecentClicks returns the most recent click events across all links.
func (q *Queries) ListRecentClicks(ctx context.Context, limit int64) ([]model.LinkClick, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, link_id, clicked_at, user_agent, referrer, device_type,
		        browser, os, ip_address, country
		 FROM link_analytics ORDER BY clicked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clicks []model.LinkClick
	for rows.Next() {
		var c model.LinkClick
		if err := rows.Scan(&c.ID, &c.LinkID, &c.ClickedAt, &c.UserAgent, &c.Referrer,
			&c.DeviceType, &c.Browser, &c.OS, &c.IPAddress, &c.Country); err != nil {
			return nil, err
		}
		clicks = append(clicks, c)
	}
	return clicks, rows.Err()
}

// RollupClicksForDay aggregates the raw click events of one calendar day into
// link_clicks_daily. Re-running for the same day overwrites the rollup, so the
// job is safe to repeat.
func (q *Queries) RollupClicksForDay(ctx context.Context, day time.Time) error {
	dayStr := day.UTC().Format("2006-01-02")
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO link_clicks_daily (link_id, day, clicks)
		 SELECT link_id, DATE(clicked_at), COUNT(*)
		 FROM link_analytics
		 WHERE DATE(clicked_at) = ?
		 GROUP BY link_id
		 ON CONFLICT (link_id, day) DO UPDATE SET clicks = excluded.clicks`,
		dayStr)
	return err
}

// ListDailyClicks returns per-day click totals for a link since the given day.
func (q *Queries) ListDailyClicks(ctx context.Context, linkID int64, since time.Time) ([]model.LinkClicksDaily, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT link_id, day, clicks FROM link_clicks_daily
		 WHERE link_id = ? AND day >= ? ORDER BY day ASC`,
		linkID, since.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LinkClicksDaily
	for rows.Next() {
		var d model.LinkClicksDaily
		var dayStr string
		if err := rows.Scan(&d.LinkID, &dayStr, &d.Clicks); err != nil {
			return nil, err
		}
		if day, err := time.Parse("2006-01-02", dayStr); err == nil {
			d.Day = day
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
