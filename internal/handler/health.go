package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const apiVersion = "1.0.0"

// Health is the liveness probe.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Smart City API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
	})
}

// Welcome answers the bare root path with a pointer to the API.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Welcome to the Smart City API",
		"docs":    "/api/health",
	})
}
