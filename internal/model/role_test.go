package model

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in    string
		want  Role
		valid bool
	}{
		{"CITIZEN", RoleCitizen, true},
		{"OPERATOR", RoleOperator, true},
		{"ADMIN", RoleAdmin, true},
		{"citizen", "", false},
		{"SUPERADMIN", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if got != tc.want || ok != tc.valid {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.valid)
		}
	}
}

func TestCanUpdateAccident(t *testing.T) {
	reporter := "user-1"
	cases := []struct {
		name       string
		role       Role
		userID     string
		reportedBy *string
		want       bool
	}{
		{"operator always", RoleOperator, "someone-else", &reporter, true},
		{"admin always", RoleAdmin, "someone-else", &reporter, true},
		{"citizen own report", RoleCitizen, "user-1", &reporter, true},
		{"citizen other report", RoleCitizen, "user-2", &reporter, false},
		{"citizen anonymous report", RoleCitizen, "user-1", nil, false},
		{"operator anonymous report", RoleOperator, "user-1", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanUpdateAccident(tc.role, tc.userID, tc.reportedBy); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanDeleteAccident(t *testing.T) {
	if CanDeleteAccident(RoleCitizen) {
		t.Error("citizens must not delete reports")
	}
	if !CanDeleteAccident(RoleOperator) || !CanDeleteAccident(RoleAdmin) {
		t.Error("operators and admins must be allowed to delete")
	}
}
