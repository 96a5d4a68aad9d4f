package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/urbanlens/smart-city-api/internal/model"
	"github.com/urbanlens/smart-city-api/internal/repository"
)

// In-memory stores implementing UserStore and SessionStore, with the
// same sentinel errors and compare-and-swap rotation semantics as the
// SQL repositories.

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]model.User{}} }

func (f *fakeUsers) Create(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) setActive(id string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.IsActive = active
	f.byID[id] = u
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]model.Session
}

func newFakeSessions() *fakeSessions { return &fakeSessions{byID: map[string]model.Session{}} }

func (f *fakeSessions) Create(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSessions) FindLive(ctx context.Context, token, userID string, now time.Time) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.Token == token && s.UserID == userID && s.ExpiresAt.After(now) {
			return s, nil
		}
	}
	return model.Session{}, repository.ErrNotFound
}

func (f *fakeSessions) Rotate(ctx context.Context, id, oldToken, newToken string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok || s.Token != oldToken {
		return repository.ErrNotFound
	}
	s.Token = newToken
	s.ExpiresAt = expiresAt
	f.byID[id] = s
	return nil
}

func (f *fakeSessions) DeleteByToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.byID {
		if s.Token == token {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) DeleteAllForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.byID {
		if s.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func newTestService() (*AuthService, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	svc := NewAuthService(users, sessions, "test-secret", time.Hour, 7*24*time.Hour, bcrypt.MinCost)
	return svc, users, sessions
}

func register(t *testing.T, svc *AuthService, email string) AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "Secret123!",
		FirstName: "Ana",
		LastName:  "Garcia",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res
}

func TestRegisterIssuesSessionAndDefaults(t *testing.T) {
	svc, _, sessions := newTestService()
	res := register(t, svc, "ana@example.com")

	if res.User.Role != model.RoleCitizen {
		t.Errorf("default role = %q, want CITIZEN", res.User.Role)
	}
	if !res.User.IsActive {
		t.Error("new accounts must be active")
	}
	if res.User.Preferences != model.DefaultPreferences() {
		t.Errorf("preferences = %+v", res.User.Preferences)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("registration must return a token pair")
	}
	if res.AccessToken == res.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}
	if sessions.count() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.count())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "ana@example.com")
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "ana@example.com",
		Password:  "Other123!",
		FirstName: "Ana",
		LastName:  "Garcia",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, sessions := newTestService()
	register(t, svc, "ana@example.com")

	res, err := svc.Login(context.Background(), "  Ana@Example.com ", "Secret123!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.Email != "ana@example.com" {
		t.Errorf("email = %q", res.User.Email)
	}
	// Registration and login each opened a session; devices coexist.
	if sessions.count() != 2 {
		t.Errorf("sessions = %d, want 2", sessions.count())
	}
}

// Unknown email and wrong password are indistinguishable to the
// caller so responses cannot enumerate accounts.
func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "ana@example.com")

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "Secret123!")
	_, errWrong := svc.Login(context.Background(), "ana@example.com", "WrongPass1!")
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", errWrong)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, users, _ := newTestService()
	res := register(t, svc, "ana@example.com")
	users.setActive(res.User.ID, false)

	_, err := svc.Login(context.Background(), "ana@example.com", "Secret123!")
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Errorf("err = %v, want ErrAccountDeactivated", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, sessions := newTestService()
	res := register(t, svc, "ana@example.com")

	pair, err := svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.RefreshToken == res.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}
	// Rotation updates the row in place: still one session.
	if sessions.count() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.count())
	}

	// The replaced token is dead immediately.
	if _, err := svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old token err = %v, want ErrInvalidToken", err)
	}
	// The new one works.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Errorf("new token err = %v", err)
	}
}

func TestRefreshRejectsForeignAndGarbageTokens(t *testing.T) {
	svc, _, _ := newTestService()
	register(t, svc, "ana@example.com")

	if _, err := svc.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token err = %v, want ErrInvalidToken", err)
	}

	// A verifiable token with no matching session row is rejected too:
	// access tokens are never valid as refresh tokens.
	res2 := register(t, svc, "bob@example.com")
	if _, err := svc.Refresh(context.Background(), res2.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access-as-refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshDeactivatedAccount(t *testing.T) {
	svc, users, _ := newTestService()
	res := register(t, svc, "ana@example.com")
	users.setActive(res.User.ID, false)

	if _, err := svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, sessions := newTestService()
	res := register(t, svc, "ana@example.com")

	if err := svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if sessions.count() != 0 {
		t.Errorf("sessions = %d, want 0", sessions.count())
	}
	if _, err := svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh after logout err = %v, want ErrInvalidToken", err)
	}
	// Logging out twice is not an error.
	if err := svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	svc, _, sessions := newTestService()
	res := register(t, svc, "ana@example.com")
	res2, err := svc.Login(context.Background(), "ana@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	other := register(t, svc, "bob@example.com")

	if err := svc.LogoutAll(context.Background(), res.User.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	// Only Ana's sessions die; Bob's survives.
	if sessions.count() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.count())
	}
	for _, token := range []string{res.RefreshToken, res2.RefreshToken} {
		if _, err := svc.Refresh(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	}
	if _, err := svc.Refresh(context.Background(), other.RefreshToken); err != nil {
		t.Errorf("unrelated session broken: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, sessions := newTestService()
	res := register(t, svc, "ana@example.com")

	if err := svc.ChangePassword(context.Background(), res.User.ID, "WrongPass1!", "NewSecret1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password err = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(context.Background(), res.User.ID, "Secret123!", "NewSecret1!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	// All sessions revoked: every device must sign in again.
	if sessions.count() != 0 {
		t.Errorf("sessions = %d, want 0", sessions.count())
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "Secret123!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "NewSecret1!"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.ChangePassword(context.Background(), "missing", "a", "b")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestVerifyAccessToken(t *testing.T) {
	svc, _, _ := newTestService()
	res := register(t, svc, "ana@example.com")

	claims, err := svc.VerifyAccessToken(res.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Email != "ana@example.com" || claims.Role != "CITIZEN" {
		t.Errorf("claims = %+v", claims)
	}
}
