// Package middleware contains reusable HTTP middleware: token
// authentication, role gating, rate limiting and response caching.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/urbanlens/smart-city-api/internal/model"
	"github.com/urbanlens/smart-city-api/internal/utils"
)

// Context keys under which the resolved identity is stored.
const (
	CtxUser   = "user"    // model.User
	CtxUserID = "user_id" // string
	CtxRole   = "role"    // model.Role
)

// UserLoader is the slice of the user repository the middleware
// needs to confirm an account still exists and is active. A signed
// token alone is not enough: a deactivated account must be rejected
// even while its tokens are cryptographically valid.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func unauthorized(c echo.Context, message, code string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"success": false,
		"message": message,
		"error":   code,
	})
}

// resolveIdentity verifies the bearer token and re-fetches the user.
// It returns the error code to respond with on failure.
func resolveIdentity(c echo.Context, secret string, users UserLoader) (model.User, string, string) {
	raw := bearerToken(c)
	if raw == "" {
		return model.User{}, "Access token required", "UNAUTHORIZED"
	}
	claims, err := utils.VerifyToken(secret, raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return model.User{}, "Token expired", "TOKEN_EXPIRED"
		}
		return model.User{}, "Invalid token", "INVALID_TOKEN"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := users.GetByID(ctx, claims.UserID)
	if err != nil || !u.IsActive {
		return model.User{}, "User not found or inactive", "UNAUTHORIZED"
	}
	return u, "", ""
}

func attachIdentity(c echo.Context, u model.User) {
	c.Set(CtxUser, u)
	c.Set(CtxUserID, u.ID)
	c.Set(CtxRole, u.Role)
}

// RequireAuth validates the Bearer access token, confirms the
// account is live, and attaches the identity to the context. Any
// failure ends the request with 401.
func RequireAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, msg, code := resolveIdentity(c, secret, users)
			if code != "" {
				return unauthorized(c, msg, code)
			}
			attachIdentity(c, u)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a valid token is present
// and silently proceeds unauthenticated otherwise. Used on public
// read endpoints that personalize when possible.
func OptionalAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u, _, code := resolveIdentity(c, secret, users); code == "" {
				attachIdentity(c, u)
			}
			return next(c)
		}
	}
}

// RequireRole enforces that the authenticated identity's role is in
// the given set: 403 on a role mismatch, 401 when no identity was
// attached at all. It must run after RequireAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(model.Role)
			if !ok {
				return unauthorized(c, "Authentication required", "UNAUTHORIZED")
			}
			if !role.In(roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "Insufficient permissions",
					"error":   "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// CurrentUser returns the identity attached by RequireAuth or
// OptionalAuth, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(CtxUser).(model.User)
	return u, ok
}
