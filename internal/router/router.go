// Package router wires the HTTP routes to their handlers and
// middleware chains.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/urbanlens/smart-city-api/internal/config"
	"github.com/urbanlens/smart-city-api/internal/handler"
	"github.com/urbanlens/smart-city-api/internal/middleware"
	"github.com/urbanlens/smart-city-api/internal/model"
)

// Deps collects everything route registration needs.
type Deps struct {
	Cfg       config.Config
	Redis     *redis.Client
	Users     middleware.UserLoader
	Auth      *handler.AuthHandler
	Accidents *handler.AccidentHandler
}

// Register mounts all routes under /api.
//
// Auth endpoints sit behind a stricter rate-limit tier than the rest
// of the API. The public accident reads additionally go through the
// Redis response cache.
func Register(e *echo.Echo, d Deps) {
	e.GET("/", handler.Welcome)

	api := e.Group("/api")
	api.GET("/health", handler.Health)

	requireAuth := middleware.RequireAuth(d.Cfg.JWTSecret, d.Users)
	optionalAuth := middleware.OptionalAuth(d.Cfg.JWTSecret, d.Users)
	authLimiter := middleware.NewTokenBucket(config.LoadAuthRateLimitConfig(), d.Redis)
	readCache := middleware.NewResponseCache(config.LoadCacheConfig(), d.Redis)

	auth := api.Group("/auth", authLimiter)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh-token", d.Auth.Refresh)
	auth.POST("/verify-token", d.Auth.VerifyToken)
	auth.POST("/logout", d.Auth.Logout, requireAuth)
	auth.POST("/logout-all", d.Auth.LogoutAll, requireAuth)
	auth.PUT("/change-password", d.Auth.ChangePassword, requireAuth)
	auth.GET("/profile", d.Auth.Profile, requireAuth)

	accidents := api.Group("/accidents")
	accidents.GET("", d.Accidents.List, optionalAuth, readCache)
	accidents.GET("/stats", d.Accidents.Stats, readCache)
	accidents.GET("/:id", d.Accidents.Get, readCache)
	accidents.POST("", d.Accidents.Create, requireAuth,
		middleware.RequireRole(model.AnyAuthenticated...))
	accidents.PUT("/:id", d.Accidents.Update, requireAuth)
	// The role check for delete lives in the handler so the denial
	// carries the INSUFFICIENT_PERMISSIONS code.
	accidents.DELETE("/:id", d.Accidents.Delete, requireAuth)
}
