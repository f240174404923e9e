package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

const userColumns = `id, email, password_hash, email_confirmed_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailConfirmedAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams holds parameters for CreateUser.
type CreateUserParams struct {
	Email            string
	PasswordHash     string
	EmailConfirmedAt sql.NullTime
}

// CreateUser inserts a new identity and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, email_confirmed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.EmailConfirmedAt, now, now)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns the identity with the given id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns the identity with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserPasswordParams holds parameters for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces the password hash for an identity.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

// ConfirmUserEmail marks an identity's email address as confirmed.
func (q *Queries) ConfirmUserEmail(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET email_confirmed_at = ?, updated_at = ? WHERE id = ? AND email_confirmed_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), id)
	return err
}

// ListAvailableUsers returns confirmed identities that do not yet have an
// allow-list entry. Used by the admin promotion picker.
func (q *Queries) ListAvailableUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users u
		 WHERE u.email_confirmed_at IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM admin_users a WHERE a.user_id = u.id)
		 ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of identities.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
