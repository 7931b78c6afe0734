// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account. Roles are held by name; the roles table only
// records which names exist.
type User struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Username              string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email                 string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password              string    `gorm:"not null" json:"-"`
	ProfilePictureURI     string    `json:"profile_picture_uri"`
	Roles                 RoleSet   `gorm:"type:text;not null" json:"roles"`
	Enabled               bool      `gorm:"not null" json:"enabled"`
	AccountNonExpired     bool      `gorm:"not null" json:"-"`
	AccountNonLocked      bool      `gorm:"not null" json:"-"`
	CredentialsNonExpired bool      `gorm:"not null" json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	// Computed on read; not persisted.
	FollowersCount int64 `gorm:"->;-:migration" json:"followers_count"`
	FollowingCount int64 `gorm:"->;-:migration" json:"following_count"`
}

// CanAuthenticate reports whether every account status flag allows login.
func (u *User) CanAuthenticate() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}

// Follow is one edge of the follow graph: FollowerID follows FollowingID.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
