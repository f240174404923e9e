package store

import (
	"context"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

// CreateAuthTokenParams holds parameters for CreateAuthToken.
type CreateAuthTokenParams struct {
	ID        string
	Purpose   string
	Email     string
	TokenHash string
	ExpiresAt time.Time
}

// CreateAuthToken stores a single-use token. Only the hash of the secret is
// persisted.
func (q *Queries) CreateAuthToken(ctx context.Context, arg CreateAuthTokenParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, purpose, email, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Purpose, arg.Email, arg.TokenHash, arg.ExpiresAt.UTC(), time.Now().UTC())
	return err
}

// GetAuthToken returns the token with the given id.
func (q *Queries) GetAuthToken(ctx context.Context, id string) (model.AuthToken, error) {
	var t model.AuthToken
	err := q.db.QueryRowContext(ctx,
		`SELECT id, purpose, email, token_hash, expires_at, used_at, created_at
		 FROM auth_tokens WHERE id = ?`, id).Scan(
		&t.ID, &t.Purpose, &t.Email, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	return t, err
}

// MarkAuthTokenUsed consumes a token. Returns the number of rows affected so
// callers can detect a concurrent redeem (0 means already used).
func (q *Queries) MarkAuthTokenUsed(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE auth_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpiredAuthTokens deletes tokens that are used or past expiry.
func (q *Queries) PurgeExpiredAuthTokens(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE used_at IS NOT NULL OR expires_at < ?`,
		time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
