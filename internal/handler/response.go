// Package handler implements the HTTP endpoints. Every response is
// shaped as {success, message, data?, error?, details?, pagination?}.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// FieldError is one entry of the detail list attached to a
// VALIDATION_ERROR response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Pagination describes the page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Data       any          `json:"data,omitempty"`
	Error      string       `json:"error,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, response{Success: true, Message: message, Data: data})
}

func okPaged(c echo.Context, message string, data any, p Pagination) error {
	return c.JSON(http.StatusOK, response{Success: true, Message: message, Data: data, Pagination: &p})
}

func fail(c echo.Context, status int, message, code string) error {
	return c.JSON(status, response{Success: false, Message: message, Error: code})
}

func failValidation(c echo.Context, details []FieldError) error {
	return c.JSON(http.StatusBadRequest, response{
		Success: false,
		Message: "Validation failed",
		Error:   "VALIDATION_ERROR",
		Details: details,
	})
}
