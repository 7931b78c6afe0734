package auth

import (
	"look/internal/models"
)

// Identity is the authenticated caller as loaded from storage for the
// current request. Services receive it explicitly.
type Identity struct {
	UserID   uint
	Username string
	Roles    models.RoleSet
}

// NewIdentity builds an identity from a stored user.
func NewIdentity(u *models.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Roles:    u.Roles,
	}
}

// HasRole reports membership of role.
func (i Identity) HasRole(role string) bool {
	return i.Roles.Has(role)
}

// IsAdmin reports ROLE_ADMIN or ROLE_SUPERADMIN.
func (i Identity) IsAdmin() bool {
	return i.Roles.IsAdminTier()
}

// IsSuperAdmin reports ROLE_SUPERADMIN.
func (i Identity) IsSuperAdmin() bool {
	return i.Roles.Has(models.RoleSuperAdmin)
}
