package models

import "strings"

// Role is the canonical role used for routing decisions. It is derived from
// the raw backend role string and recomputed wherever needed, never stored
// independently.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHR          Role = "hr"
	RoleManager     Role = "manager"
	RoleEmployee    Role = "employee"
	RoleTravelDesk  Role = "travel_desk"
	RoleFinanceDesk Role = "finance_desk"
)

// CanonicalRoles lists every role the redirector can route to.
var CanonicalRoles = []Role{
	RoleAdmin,
	RoleHR,
	RoleManager,
	RoleEmployee,
	RoleTravelDesk,
	RoleFinanceDesk,
}

// roleSynonyms maps normalized backend role strings to canonical roles.
// Keys are lower-case with spaces, dashes and underscores stripped, so
// "TRAVEL_DESK", "travel-desk" and "TravelDesk" all resolve identically.
var roleSynonyms = map[string]Role{
	"admin":          RoleAdmin,
	"superadmin":     RoleAdmin,
	"administrator":  RoleAdmin,
	"hr":             RoleHR,
	"hrmanager":      RoleHR,
	"humanresources": RoleHR,
	"manager":        RoleManager,
	"employee":       RoleEmployee,
	"user":           RoleEmployee,
	"staff":          RoleEmployee,
	"traveldesk":     RoleTravelDesk,
	"travel":         RoleTravelDesk,
	"traveladmin":    RoleTravelDesk,
	"financedesk":    RoleFinanceDesk,
	"finance":        RoleFinanceDesk,
	"financeadmin":   RoleFinanceDesk,
	"accounts":       RoleFinanceDesk,
}

// MapRole maps an arbitrary backend role string to exactly one canonical
// role. Pure and total: unrecognized or empty input maps to RoleEmployee.
func MapRole(raw string) Role {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	if role, ok := roleSynonyms[key]; ok {
		return role
	}
	return RoleEmployee
}

// ParseRole returns the canonical role matching s exactly, or false when s
// is not one of the six canonical values. Unlike MapRole it does not apply
// synonyms or defaults; it is used for configuration keys.
func ParseRole(s string) (Role, bool) {
	for _, r := range CanonicalRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
