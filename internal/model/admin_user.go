package model

import (
	"database/sql"
	"time"
)

// User is a local identity record. Identities authenticate; they gain
// dashboard access only through a matching active AdminUser row.
type User struct {
	ID               int64        `json:"id"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"` // Never expose in JSON
	EmailConfirmedAt sql.NullTime `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Confirmed reports whether the identity's email address is confirmed.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt.Valid
}

// AdminUser is an allow-list entry granting dashboard access to an identity.
// Deactivation (IsActive=false) is a soft delete; rows are never removed by
// the sign-in flow.
type AdminUser struct {
	ID        int64         `json:"id"`
	UserID    sql.NullInt64 `json:"user_id"`
	Email     string        `json:"email"`
	Role      Role          `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedBy sql.NullInt64 `json:"created_by"`
	LastLogin sql.NullTime  `json:"last_login,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// IsAdmin reports whether this entry carries admin authority.
func (a *AdminUser) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// IsSuperAdmin reports whether this entry is a super_admin.
func (a *AdminUser) IsSuperAdmin() bool {
	return a.Role.IsSuperAdmin()
}
