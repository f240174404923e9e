package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

const linkColumns = `id, title, url, description, icon_value, short_code,
	is_active, position, click_count, created_at, updated_at`

func scanLink(row interface{ Scan(...any) error }) (model.Link, error) {
	var l model.Link
	err := row.Scan(&l.ID, &l.Title, &l.URL, &l.Description, &l.IconValue, &l.ShortCode,
		&l.IsActive, &l.Position, &l.ClickCount, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (q *Queries) queryLinks(ctx context.Context, query string, args ...any) ([]model.Link, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListLinks returns all links in display order.
func (q *Queries) ListLinks(ctx context.Context) ([]model.Link, error) {
	return q.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links ORDER BY position ASC, id ASC`)
}

// ListActiveLinks returns active links in display order. Ties on position
// are broken by id so the ordering is stable.
func (q *Queries) ListActiveLinks(ctx context.Context) ([]model.Link, error) {
	return q.queryLinks(ctx,
		`SELECT `+linkColumns+` FROM links WHERE is_active = 1 ORDER BY position ASC, id ASC`)
}

// GetLinkByID returns the link with the given id.
func (q *Queries) GetLinkByID(ctx context.Context, id int64) (model.Link, error) {
	return scanLink(q.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id))
}

// GetActiveLinkByShortCode returns the active link behind a click URL.
func (q *Queries) GetActiveLinkByShortCode(ctx context.Context, code string) (model.Link, error) {
	return scanLink(q.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE short_code = ? AND is_active = 1`, code))
}

// ShortCodeExists reports whether a short code is already taken.
func (q *Queries) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM links WHERE short_code = ?`, code).Scan(&n)
	return n > 0, err
}

// CreateLinkParams holds parameters for CreateLink.
type CreateLinkParams struct {
	Title       string
	URL         sql.NullString
	Description sql.NullString
	IconValue   string
	ShortCode   string
	IsActive    bool
}

// CreateLink inserts a link at the end of the display order
// (position = max(existing)+1) and returns it.
func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (model.Link, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO links (title, url, description, icon_value, short_code, is_active,
		                    position, click_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(position), 0) + 1 FROM links), 0, ?, ?)`,
		arg.Title, arg.URL, arg.Description, arg.IconValue, arg.ShortCode, arg.IsActive, now, now)
	if err != nil {
		return model.Link{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Link{}, err
	}
	return q.GetLinkByID(ctx, id)
}

// UpdateLinkParams holds parameters for UpdateLink.
type UpdateLinkParams struct {
	ID          int64
	Title       string
	URL         sql.NullString
	Description sql.NullString
	IconValue   string
	IsActive    bool
}

// UpdateLink updates the editable fields of a link.
func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (model.Link, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE links SET title = ?, url = ?, description = ?, icon_value = ?,
		        is_active = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.URL, arg.Description, arg.IconValue, arg.IsActive, time.Now().UTC(), arg.ID)
	if err != nil {
		return model.Link{}, err
	}
	return q.GetLinkByID(ctx, arg.ID)
}

// DeleteLink removes a link. Its analytics rows cascade.
func (q *Queries) DeleteLink(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	return err
}

// IncrementLinkClickCount bumps the click counter in a single statement so
// concurrent clicks never under-count.
func (q *Queries) IncrementLinkClickCount(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE links SET click_count = click_count + 1 WHERE id = ?`, id)
	return err
}

// updateLinkPosition sets the position of a single link. Used by ReorderLinks
// inside a transaction.
func (q *Queries) updateLinkPosition(ctx context.Context, id, position int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE links SET position = ?, updated_at = ? WHERE id = ?`,
		position, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("link %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ReorderLinks rewrites positions 1..N to match the given id sequence, in a
// single transaction. A partial failure rolls everything back.
func ReorderLinks(ctx context.Context, db *sql.DB, orderedIDs []int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reorder transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(tx)
	for i, id := range orderedIDs {
		if err := q.updateLinkPosition(ctx, id, int64(i+1)); err != nil {
			return fmt.Errorf("repositioning link %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder: %w", err)
	}
	return nil
}
