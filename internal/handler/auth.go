package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/urbanlens/smart-city-api/internal/middleware"
	"github.com/urbanlens/smart-city-api/internal/model"
	"github.com/urbanlens/smart-city-api/internal/service"
	"github.com/urbanlens/smart-city-api/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type registerReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Role       string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// userPayload is the public view of a user; it never carries the
// password hash.
type userPayload struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	FirstName   string            `json:"firstName"`
	LastName    string            `json:"lastName"`
	Phone       *string           `json:"phone,omitempty"`
	Address     *string           `json:"address,omitempty"`
	City        *string           `json:"city,omitempty"`
	PostalCode  *string           `json:"postalCode,omitempty"`
	Role        model.Role        `json:"role"`
	IsActive    bool              `json:"isActive"`
	Avatar      *string           `json:"avatar,omitempty"`
	Preferences model.Preferences `json:"preferences"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toUserPayload(u model.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Address:     u.Address,
		City:        u.City,
		PostalCode:  u.PostalCode,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Avatar:      u.Avatar,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type authData struct {
	User         userPayload `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (r *registerReq) validate() (service.RegisterInput, []FieldError) {
	var details []FieldError
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if !validEmail(email) {
		details = append(details, FieldError{"email", "Please provide a valid email address"})
	}
	if !validPassword(r.Password) {
		details = append(details, FieldError{"password", "Password must be at least 8 characters long and contain an uppercase letter, a lowercase letter, a number and a special character"})
	}
	first := strings.TrimSpace(r.FirstName)
	if !lenBetween(first, 2, 50) {
		details = append(details, FieldError{"firstName", "firstName must be between 2 and 50 characters"})
	}
	last := strings.TrimSpace(r.LastName)
	if !lenBetween(last, 2, 50) {
		details = append(details, FieldError{"lastName", "lastName must be between 2 and 50 characters"})
	}
	if p := strings.TrimSpace(r.Phone); p != "" && !validPhone(p) {
		details = append(details, FieldError{"phone", "Please provide a valid phone number"})
	}
	var role model.Role
	if r.Role != "" {
		parsed, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(r.Role)))
		if !ok {
			details = append(details, FieldError{"role", "role must be one of CITIZEN, OPERATOR, ADMIN"})
		}
		role = parsed
	}
	if details != nil {
		return service.RegisterInput{}, details
	}
	return service.RegisterInput{
		Email:      email,
		Password:   r.Password,
		FirstName:  first,
		LastName:   last,
		Phone:      optional(r.Phone),
		Address:    optional(r.Address),
		City:       optional(r.City),
		PostalCode: optional(r.PostalCode),
		Role:       role,
	}, nil
}

// Register creates the user and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
	}
	in, details := req.validate()
	if details != nil {
		return failValidation(c, details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Auth.Register(ctx, in)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			return fail(c, http.StatusBadRequest, err.Error(), "REGISTRATION_ERROR")
		}
		return fail(c, http.StatusBadRequest, "Registration failed", "REGISTRATION_ERROR")
	}
	return ok(c, http.StatusCreated, "User registered successfully", authData{
		User:         toUserPayload(res.User),
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

// Login verifies credentials and opens a new session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return failValidation(c, []FieldError{{"email", "email and password are required"}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountDeactivated) {
			return fail(c, http.StatusUnauthorized, err.Error(), "LOGIN_ERROR")
		}
		return fail(c, http.StatusUnauthorized, "Login failed", "LOGIN_ERROR")
	}
	return ok(c, http.StatusOK, "Login successful", authData{
		User:         toUserPayload(res.User),
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

// Refresh rotates the presented refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return failValidation(c, []FieldError{{"refreshToken", "refreshToken is required"}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token", "REFRESH_ERROR")
		}
		return fail(c, http.StatusUnauthorized, "Token refresh failed", "REFRESH_ERROR")
	}
	return ok(c, http.StatusOK, "Token refreshed successfully", tokenData{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the session carrying the refresh token. Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return failValidation(c, []FieldError{{"refreshToken", "refreshToken is required"}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, http.StatusInternalServerError, "Logout failed", "LOGOUT_ERROR")
	}
	return ok(c, http.StatusOK, "Logout successful", nil)
}

// LogoutAll revokes every session of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.LogoutAll(ctx, u.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "Logout all failed", "LOGOUT_ALL_ERROR")
	}
	return ok(c, http.StatusOK, "All sessions logged out successfully", nil)
}

// ChangePassword re-hashes the password and forces re-authentication
// on all devices.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
	}
	var details []FieldError
	if req.CurrentPassword == "" {
		details = append(details, FieldError{"currentPassword", "currentPassword is required"})
	}
	if !validPassword(req.NewPassword) {
		details = append(details, FieldError{"newPassword", "Password must be at least 8 characters long and contain an uppercase letter, a lowercase letter, a number and a special character"})
	}
	if details != nil {
		return failValidation(c, details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fail(c, http.StatusBadRequest, "Current password is incorrect", "PASSWORD_CHANGE_ERROR")
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, http.StatusBadRequest, "User not found", "PASSWORD_CHANGE_ERROR")
		}
		return fail(c, http.StatusBadRequest, "Password change failed", "PASSWORD_CHANGE_ERROR")
	}
	return ok(c, http.StatusOK, "Password changed successfully", nil)
}

// Profile returns the authenticated user's public profile.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}
	return ok(c, http.StatusOK, "Profile retrieved successfully", echo.Map{"user": toUserPayload(u)})
}

// VerifyToken checks the Bearer access token without touching the
// store and echoes the decoded identity claims.
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return fail(c, http.StatusUnauthorized, "No token provided", "NO_TOKEN")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

	claims, err := h.Auth.VerifyAccessToken(raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return fail(c, http.StatusUnauthorized, "Token expired", "TOKEN_EXPIRED")
		}
		return fail(c, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
	}
	return ok(c, http.StatusOK, "Token is valid", echo.Map{"user": echo.Map{
		"userId": claims.UserID,
		"email":  claims.Email,
		"role":   claims.Role,
	}})
}
