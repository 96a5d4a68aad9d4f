package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbanlens/smart-city-api/internal/model"
)

const userColumns = "id,email,password_hash,first_name,last_name,phone,address,city,postal_code,role,is_active,avatar,preferences,created_at,updated_at"

// UserRepo persists rows of the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user. The email is normalized to lowercase and
// must be unique; a duplicate maps to ErrEmailExists. A missing ID
// is filled with a fresh UUID. Timestamps are set here so the
// returned struct matches the stored row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.UpdatedAt = now, now

	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Phone, u.Address, u.City, u.PostalCode,
		string(u.Role), u.IsActive, u.Avatar, prefs,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		// MySQL error 1062 = duplicate entry for a unique key.
		if strings.Contains(err.Error(), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email=?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u     model.User
		role  string
		prefs []byte
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Phone, &u.Address, &u.City, &u.PostalCode,
			&role, &u.IsActive, &u.Avatar, &prefs,
			&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if len(prefs) > 0 {
		// A malformed preference bag should not make the user
		// unreadable; fall back to defaults.
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			u.Preferences = model.DefaultPreferences()
		}
	}
	return u, nil
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		passwordHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
