package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

const adminColumns = `id, user_id, email, role, is_active, created_by, last_login, created_at`

func scanAdmin(row interface{ Scan(...any) error }) (model.AdminUser, error) {
	var a model.AdminUser
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.Role, &a.IsActive, &a.CreatedBy, &a.LastLogin, &a.CreatedAt)
	return a, err
}

// GetActiveAdminByUserID returns the active allow-list entry for an identity.
func (q *Queries) GetActiveAdminByUserID(ctx context.Context, userID int64) (model.AdminUser, error) {
	return scanAdmin(q.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE user_id = ? AND is_active = 1`, userID))
}

// GetActiveAdminByEmail returns the active allow-list entry for an email.
// Used for the pre-authentication check before a session exists.
func (q *Queries) GetActiveAdminByEmail(ctx context.Context, email string) (model.AdminUser, error) {
	return scanAdmin(q.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE email = ? AND is_active = 1`, email))
}

// GetAdminByID returns the allow-list entry with the given id, active or not.
func (q *Queries) GetAdminByID(ctx context.Context, id int64) (model.AdminUser, error) {
	return scanAdmin(q.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users WHERE id = ?`, id))
}

// ListAdminUsers returns all allow-list entries, newest first.
func (q *Queries) ListAdminUsers(ctx context.Context) ([]model.AdminUser, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+adminColumns+` FROM admin_users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []model.AdminUser
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// CreateAdminUserParams holds parameters for CreateAdminUser.
type CreateAdminUserParams struct {
	UserID    sql.NullInt64
	Email     string
	Role      model.Role
	CreatedBy sql.NullInt64
}

// CreateAdminUser appends one allow-list entry and returns it.
func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (model.AdminUser, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO admin_users (user_id, email, role, is_active, created_by, created_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		arg.UserID, arg.Email, arg.Role, arg.CreatedBy, time.Now().UTC())
	if err != nil {
		return model.AdminUser{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AdminUser{}, err
	}
	return q.GetAdminByID(ctx, id)
}

// UpdateAdminUserParams holds parameters for UpdateAdminUser.
type UpdateAdminUserParams struct {
	ID       int64
	Role     model.Role
	IsActive bool
}

// UpdateAdminUser updates role and active flag. Deactivation is the only
// delete this table supports.
func (q *Queries) UpdateAdminUser(ctx context.Context, arg UpdateAdminUserParams) (model.AdminUser, error) {
	_, err := q.db.ExecContext(ctx,
		`UPDATE admin_users SET role = ?, is_active = ? WHERE id = ?`,
		arg.Role, arg.IsActive, arg.ID)
	if err != nil {
		return model.AdminUser{}, err
	}
	return q.GetAdminByID(ctx, arg.ID)
}

// UpdateAdminLastLogin records a successful session establishment.
func (q *Queries) UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE admin_users SET last_login = ? WHERE id = ?`, at, id)
	return err
}

// LinkAdminToUser fills in the user_id of an entry created by email before
// the identity existed. No-op when already linked.
func (q *Queries) LinkAdminToUser(ctx context.Context, id, userID int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE admin_users SET user_id = ? WHERE id = ? AND user_id IS NULL`, userID, id)
	return err
}

// CountActiveAdmins returns the number of active allow-list entries.
func (q *Queries) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_users WHERE is_active = 1`).Scan(&n)
	return n, err
}
