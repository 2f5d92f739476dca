package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/records-service/internal/model"
)

// TokenRepo persists hashed refresh tokens.  Each row is one live session;
// redeeming or revoking a token deletes its row.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a refresh token hash row.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
		userID, tokenHash, exp.UTC(), time.Now().UTC())
	return err
}

// FindCandidates returns every stored token for the user, newest first.
// Expired rows are included; callers decide what to do with them.
func (r *TokenRepo) FindCandidates(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RefreshToken
	for rows.Next() {
		var t model.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Consume deletes exactly one row by id and reports whether it existed.
func (r *TokenRepo) Consume(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	return affected(res, err)
}

// ConsumeByHash atomically deletes the user's row matching tokenHash.  When
// notExpiredAt is non-nil, rows that expired before it are not matched.  The
// single conditional DELETE means only one of several concurrent callers
// presenting the same token sees true.
func (r *TokenRepo) ConsumeByHash(ctx context.Context, userID uint64, tokenHash string, notExpiredAt *time.Time) (bool, error) {
	q := "DELETE FROM refresh_tokens WHERE user_id=? AND token_hash=?"
	args := []any{userID, tokenHash}
	if notExpiredAt != nil {
		q += " AND expires_at > ?"
		args = append(args, notExpiredAt.UTC())
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	return affected(res, err)
}

// RevokeAllForUser deletes all of the user's tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired removes rows whose expiry is at or before now and returns
// how many were removed.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
