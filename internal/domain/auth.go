package domain

// Role is the capacity in which a profile acts.
type Role string

const (
	RoleCoach  Role = "coach"
	RolePlayer Role = "player"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCoach || r == RolePlayer
}
