package handler

import (
	"strings"
	"testing"
	"time"
)

func TestValidPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"Secret123!", true},
		{"Aa1!aaaa", true},
		{"short1A!", true},
		{"Sh1!", false},        // too short
		{"secret123!", false},  // no uppercase
		{"SECRET123!", false},  // no lowercase
		{"Secretxyz!", false},  // no digit
		{"Secret1234", false},  // no special
		{"", false},
	}
	for _, tc := range cases {
		if got := validPassword(tc.pw); got != tc.want {
			t.Errorf("validPassword(%q) = %v, want %v", tc.pw, got, tc.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"ana@example.com", true},
		{"a.b+c@sub.example.org", true},
		{"not-an-email", false},
		{"a@b", false},
		{"a b@c.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := validEmail(tc.email); got != tc.want {
			t.Errorf("validEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	for _, good := range []string{"+34 600 123 456", "600123456", "(91) 123-45-67"} {
		if !validPhone(good) {
			t.Errorf("validPhone(%q) = false, want true", good)
		}
	}
	for _, bad := range []string{"phone", "600123456x", ""} {
		if validPhone(bad) {
			t.Errorf("validPhone(%q) = true, want false", bad)
		}
	}
}

// Lengths are counted in characters, not bytes: accented Spanish
// input must not be shortchanged by its UTF-8 encoding.
func TestLenBetweenCountsRunes(t *testing.T) {
	cases := []struct {
		s        string
		min, max int
		want     bool
	}{
		{"José", 2, 50, true},
		{"Ní", 2, 50, true},                              // 2 runes, 3 bytes
		{strings.Repeat("ñ", 50), 2, 50, true},           // exactly max in runes
		{strings.Repeat("ñ", 51), 2, 50, false},          // one over
		{"Avinguda Diagonal 211, Barcelona", 5, 200, true},
		{strings.Repeat("á", 200), 5, 200, true},
		{"a", 2, 50, false},
	}
	for _, tc := range cases {
		if got := lenBetween(tc.s, tc.min, tc.max); got != tc.want {
			t.Errorf("lenBetween(%q, %d, %d) = %v, want %v", tc.s, tc.min, tc.max, got, tc.want)
		}
	}
}

func TestOptional(t *testing.T) {
	if optional("") != nil || optional("   ") != nil {
		t.Error("blank input must map to nil")
	}
	if p := optional("  Madrid "); p == nil || *p != "Madrid" {
		t.Errorf("optional trimmed = %v", p)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"2025-03-15T13:45:00Z", true},
		{"2025-03-15 13:45:00", true},
		{"2025-03-15", true},
		{"15/03/2025", false},
		{"not a date", false},
		{"", false},
	}
	for _, tc := range cases {
		got, ok := parseDate(tc.in)
		if ok != tc.valid {
			t.Errorf("parseDate(%q) valid = %v, want %v", tc.in, ok, tc.valid)
			continue
		}
		if ok && got.Location() != time.UTC {
			t.Errorf("parseDate(%q) not UTC: %v", tc.in, got.Location())
		}
	}
}
