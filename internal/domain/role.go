package domain

// Role identifies which side of a booking a session observes.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleRider || r == RoleDriver
}
