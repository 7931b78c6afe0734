package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Role names. The tiers are ordered ROLE_USER < ROLE_ADMIN < ROLE_SUPERADMIN.
const (
	RoleUser       = "ROLE_USER"
	RoleAdmin      = "ROLE_ADMIN"
	RoleSuperAdmin = "ROLE_SUPERADMIN"
)

// DefaultRoles is the fixed role vocabulary seeded at startup.
var DefaultRoles = []string{RoleUser, RoleAdmin, RoleSuperAdmin}

// Role is a row of the role existence table. Users reference roles by name.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

// RoleSet is a set of role names stored on the user row as a JSON array.
type RoleSet []string

// NewRoleSet builds a sorted, de-duplicated set.
func NewRoleSet(names ...string) RoleSet {
	out := make(RoleSet, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the set contains role.
func (r RoleSet) Has(role string) bool {
	return slices.Contains(r, role)
}

// HasAny reports whether the set contains at least one of roles.
func (r RoleSet) HasAny(roles ...string) bool {
	for _, role := range roles {
		if r.Has(role) {
			return true
		}
	}
	return false
}

// IsAdminTier reports ROLE_ADMIN or ROLE_SUPERADMIN membership.
func (r RoleSet) IsAdminTier() bool {
	return r.HasAny(RoleAdmin, RoleSuperAdmin)
}

// Value implements driver.Valuer.
func (r RoleSet) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *RoleSet) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = RoleSet{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported role set type %T", src)
	}
	if len(raw) == 0 {
		*r = RoleSet{}
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("decode role set: %w", err)
	}
	*r = NewRoleSet(names...)
	return nil
}
