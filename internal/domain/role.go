package domain

import "strings"

// Role is the tenant-hierarchy role of a user.
type Role string

const (
	RoleGlobalAdmin  Role = "global_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleManager      Role = "manager"
	RoleAgent        Role = "agent"
)

// AllRoles lists roles from most to least privileged.
var AllRoles = []Role{RoleGlobalAdmin, RoleCompanyAdmin, RoleManager, RoleAgent}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGlobalAdmin, RoleCompanyAdmin, RoleManager, RoleAgent:
		return true
	}
	return false
}

// Rank orders roles by privilege. Unknown roles rank below agent.
func (r Role) Rank() int {
	switch r {
	case RoleGlobalAdmin:
		return 4
	case RoleCompanyAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleAgent:
		return 1
	}
	return 0
}

// IsGlobal reports whether the role sees data across all companies.
func (r Role) IsGlobal() bool {
	return r == RoleGlobalAdmin
}

func (r Role) String() string {
	return string(r)
}
