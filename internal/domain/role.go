package domain

// Role is the caller's platform role, carried in the access token.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

func (r Role) rank() int {
	switch r {
	case RoleStudent:
		return 1
	case RoleInstructor:
		return 2
	case RoleAdmin:
		return 3
	case RoleSuperAdmin:
		return 4
	}
	return 0
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.rank() >= min.rank()
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

// CanManage reports whether the actor may modify content owned by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	if a.Role.AtLeast(RoleAdmin) {
		return true
	}
	return a.Role == RoleInstructor && ownerID != "" && a.UserID == ownerID
}
