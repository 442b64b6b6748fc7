package domain

// Role is the marketplace role attached to a signed-in user
type Role string

const (
	RoleWorker Role = "worker"
	RoleGrower Role = "grower"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleGrower, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a provider role claim into a Role.
// Unknown or empty claims yield an empty role.
func ParseRole(s string) Role {
	r := Role(s)
	if !r.Valid() {
		return ""
	}
	return r
}

// DefaultPath returns the landing page of a role
func (r Role) DefaultPath() string {
	switch r {
	case RoleGrower:
		return "/dashboard"
	case RoleAdmin:
		return "/admin"
	default:
		return "/jobs"
	}
}
