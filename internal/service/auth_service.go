// Package service holds the business logic that sits between the
// HTTP handlers and the repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/urbanlens/smart-city-api/internal/model"
	"github.com/urbanlens/smart-city-api/internal/repository"
	"github.com/urbanlens/smart-city-api/internal/utils"
)

// Failure classes raised by AuthService. Handlers translate these to
// HTTP statuses; everything else is an infrastructure error.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. The two cases are intentionally indistinguishable so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the slice of the user repository AuthService needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionStore is the slice of the session repository AuthService needs.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	FindLive(ctx context.Context, token, userID string, now time.Time) (model.Session, error)
	Rotate(ctx context.Context, id, oldToken, newToken string, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// AuthService is the sole authority for turning a password or a
// refresh token into an authenticated identity: it issues, verifies
// and rotates tokens and owns the session lifecycle.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

func NewAuthService(users UserStore, sessions SessionStore, secret string, accessTTL, refreshTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
	}
}

// RegisterInput carries the validated registration payload. Role is
// empty for the default (CITIZEN).
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      *string
	Address    *string
	City       *string
	PostalCode *string
	Role       model.Role
}

// AuthResult is returned by Register and Login: the user (hash never
// leaves the service boundary in responses; handlers build their own
// payloads) plus a fresh token pair.
type AuthResult struct {
	User           model.User
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// Register creates a user with a bcrypt-hashed password and default
// preferences, then opens a first session exactly as Login would.
// A taken email maps to ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleCitizen
	}
	u := model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		PostalCode:   in.PostalCode,
		Role:         role,
		IsActive:     true,
		Preferences:  model.DefaultPreferences(),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, ErrDuplicateEmail
		}
		return AuthResult{}, err
	}
	return s.issueSession(ctx, u)
}

// Login verifies credentials and opens a new session. The check
// order is: existence, active flag, password — an inactive account
// is reported before any bcrypt work is spent on it. Unknown email
// and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !u.IsActive {
		return AuthResult{}, ErrAccountDeactivated
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, u)
}

// issueSession mints a token pair and records the refresh token as a
// new session row. Each call adds a session: concurrent logins from
// several devices coexist.
func (s *AuthService) issueSession(ctx context.Context, u model.User) (AuthResult, error) {
	access, err := utils.NewSignedToken(s.secret, u.ID, u.Email, string(u.Role), s.accessTTL)
	if err != nil {
		return AuthResult{}, err
	}
	refresh, err := utils.NewSignedToken(s.secret, u.ID, u.Email, string(u.Role), s.refreshTTL)
	if err != nil {
		return AuthResult{}, err
	}
	sess := model.Session{
		UserID:    u.ID,
		Token:     refresh.Token,
		ExpiresAt: refresh.Exp,
	}
	if err := s.sessions.Create(ctx, &sess); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		User:           u,
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   refresh.Token,
		RefreshExpires: refresh.Exp,
	}, nil
}

// Refresh exchanges a live refresh token for a new token pair. The
// session row is rotated in place under a compare-and-swap on the
// presented token, so the token it replaces stops working the moment
// the rotation commits — including for a concurrent refresh racing
// with this one. Any failure along the way is ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := utils.VerifyToken(s.secret, refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	now := time.Now().UTC()
	sess, err := s.sessions.FindLive(ctx, refreshToken, claims.UserID, now)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil || !u.IsActive {
		return TokenPair{}, ErrInvalidToken
	}

	access, err := utils.NewSignedToken(s.secret, u.ID, u.Email, string(u.Role), s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	newRefresh, err := utils.NewSignedToken(s.secret, u.ID, u.Email, string(u.Role), s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Rotate(ctx, sess.ID, refreshToken, newRefresh.Token, newRefresh.Exp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a rotation race or the token was revoked between
			// the lookup and the swap.
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshToken:   newRefresh.Token,
		RefreshExpires: newRefresh.Exp,
	}, nil
}

// Logout deletes the session carrying the refresh token. It is
// idempotent: a token that matches nothing is still a success.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.DeleteByToken(ctx, refreshToken)
}

// LogoutAll deletes every session the user owns. Used for the
// explicit "log out everywhere" operation and after a password
// change.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.DeleteAllForUser(ctx, userID)
}

// ChangePassword verifies the current password, stores a new hash
// and revokes every session so all devices must re-authenticate.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.LogoutAll(ctx, userID)
}

// VerifyAccessToken is pure verification: it decodes and validates
// the signed token without touching any store. Callers that need the
// account's current active flag must fetch the user as well.
func (s *AuthService) VerifyAccessToken(token string) (*utils.Claims, error) {
	return utils.VerifyToken(s.secret, token)
}
