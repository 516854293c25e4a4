package auth

import "strings"

// Role represents an API caller role.
type Role string

const (
	// RoleViewer may run comparisons and estimates.
	RoleViewer Role = "viewer"
	// RoleAnalyst may additionally export reports.
	RoleAnalyst Role = "analyst"
	// RoleAdmin may additionally refresh the price catalog.
	RoleAdmin Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(value))); role {
	case RoleViewer, RoleAnalyst, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleAnalyst:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
