package authz

const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

var Roles = []string{RoleUser, RoleManager, RoleAdmin}

func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsElevated reports whether the role may run bulk operations.
func IsElevated(role string) bool {
	return role == RoleManager || role == RoleAdmin
}
