package rbac

// Operator roles for the ops API. Keep these stable; tokens carry them.
const (
	RoleSupervisor = "supervisor"
	RoleOperator   = "operator"
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// Valid reports whether role can be placed in a token.
func Valid(role string) bool {
	switch role {
	case RoleSupervisor, RoleOperator, RoleAdmin:
		return true
	}
	return false
}
