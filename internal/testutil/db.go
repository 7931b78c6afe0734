// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"sync"
	"testing"

	"look/internal/database"
	"look/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with the full schema.
// The pool is pinned to one connection so every statement sees the same
// in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: database.NewGormLogger(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Create(&[]models.Role{
		{Name: models.RoleUser}, {Name: models.RoleAdmin}, {Name: models.RoleSuperAdmin},
	}).Error)
	return db
}

// Password is the plaintext behind every user created by CreateUser.
const Password = "password123"

var passwordHash = sync.OnceValue(func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
})

// CreateUser inserts an enabled user named username with email
// username@example.com. With no roles given it gets ROLE_USER.
func CreateUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	u := &models.User{
		Username:              username,
		Email:                 username + "@example.com",
		Password:              passwordHash(),
		Roles:                 models.NewRoleSet(roles...),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post authored by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, title string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Title: title, Content: title + " content"}
	require.NoError(t, db.Create(p).Error)
	return p
}
