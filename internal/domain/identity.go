package domain

import "github.com/google/uuid"

// Identity is the authenticated caller, decoded from an access token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// HasRole reports whether the caller's role is one of roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// CanModify reports whether the caller may update or delete task:
// admins may modify any task, everyone else only their own.
func (i Identity) CanModify(task *Task) bool {
	return i.IsAdmin() || task.IsOwnedBy(i.UserID)
}
