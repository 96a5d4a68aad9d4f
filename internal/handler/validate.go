package handler

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Boundary validation helpers. Input is checked into typed request
// structs before any business logic runs; failures collect into a
// FieldError list.

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

func validEmail(s string) bool { return emailRe.MatchString(s) }

// validPassword enforces the registration policy: at least 8
// characters with an uppercase letter, a lowercase letter, a digit
// and a special character.
func validPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

func validPhone(s string) bool { return phoneRe.MatchString(s) }

// lenBetween checks an already-trimmed string's length range in
// characters, not bytes, so accented names and locations are not
// penalized for their encoding.
func lenBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// optional trims a request string and returns nil for the empty
// value, so blank inputs store as NULL instead of "".
func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// parseDate accepts RFC3339 timestamps and plain dates.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
