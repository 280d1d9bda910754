package model

// Role is the single role a user holds.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// AllRoles lists every role known to the system.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// Valid reports whether r is one of AllRoles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}
