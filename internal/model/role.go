package model

// Role is the closed set of account roles. The value stored in the
// users.role column and in the JWT "role" claim is always one of the
// three constants below; anything else is rejected at parse time.
type Role string

const (
	RoleCitizen  Role = "CITIZEN"
	RoleOperator Role = "OPERATOR"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes and validates a role string. The boolean is
// false for unknown values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCitizen, RoleOperator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// In reports whether r is a member of the given set.
func (r Role) In(set ...Role) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}

// The three policy sets used across the API. Every role check in the
// application goes through these (or CanUpdateAccident /
// CanDeleteAccident below) rather than comparing strings inline.
var (
	AnyAuthenticated = []Role{RoleCitizen, RoleOperator, RoleAdmin}
	OperatorOrAdmin  = []Role{RoleOperator, RoleAdmin}
	AdminOnly        = []Role{RoleAdmin}
)

// CanUpdateAccident allows operators, admins, and the original
// reporter to edit a report. reportedBy may be nil for anonymous or
// seeded reports; those are editable only by operators and admins.
func CanUpdateAccident(role Role, userID string, reportedBy *string) bool {
	if role.In(OperatorOrAdmin...) {
		return true
	}
	return reportedBy != nil && *reportedBy == userID
}

// CanDeleteAccident allows only operators and admins. The reporter
// deliberately cannot delete their own report.
func CanDeleteAccident(role Role) bool {
	return role.In(OperatorOrAdmin...)
}
