package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/urbanlens/smart-city-api/internal/model"
)

// SessionRepo persists refresh-token sessions. Every successful
// login or registration adds a row (multi-device login); refresh
// rotates a row in place; logout deletes rows. Expired rows are
// never returned and are left for the database to be cleaned out of
// band.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row. A missing ID is filled with a fresh UUID.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id,user_id,token,expires_at,created_at) VALUES (?,?,?,?,?)",
		s.ID, s.UserID, s.Token, s.ExpiresAt, s.CreatedAt)
	return err
}

// FindLive returns the session matching the exact token and owner
// with expires_at still in the future. ErrNotFound covers a missing
// row and an expired one alike.
func (r *SessionRepo) FindLive(ctx context.Context, token, userID string, now time.Time) (model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,expires_at,created_at FROM sessions WHERE token=? AND user_id=? AND expires_at>? LIMIT 1",
		token, userID, now.UTC()).
		Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Rotate swaps the stored token for a new one with a fresh expiry.
// The update is conditional on the old token still being the stored
// value, so two concurrent refreshes presenting the same token
// cannot both succeed: the loser affects zero rows and gets
// ErrNotFound.
func (r *SessionRepo) Rotate(ctx context.Context, id, oldToken, newToken string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET token=?, expires_at=? WHERE id=? AND token=?",
		newToken, expiresAt, id, oldToken)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByToken removes any session carrying the token. Deleting a
// token that does not exist is not an error (logout is idempotent).
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE token=?", token)
	return err
}

// DeleteAllForUser removes every session owned by the user.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	return err
}
