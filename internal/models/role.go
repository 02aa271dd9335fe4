package models

// Role is the role claim carried by a project key or admin session token.
type Role string

const (
	RoleAnon        Role = "anon"
	RoleServiceRole Role = "service_role"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAnon, RoleServiceRole, RoleAdmin:
		return true
	}
	return false
}
