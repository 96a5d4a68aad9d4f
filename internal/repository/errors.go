// Package repository implements the relational stores. Sentinel
// errors defined here let the service and handler layers distinguish
// failure classes without inspecting SQL errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row, including a
// rotation whose compare-and-swap condition misses.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates the unique
// email constraint.
var ErrEmailExists = errors.New("email already exists")
