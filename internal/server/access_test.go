package server

import (
	"fmt"
	"testing"

	"look/internal/cache"
	"look/internal/models"
	"look/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteSpellingCannotSkipPolicy(t *testing.T) {
	e := newTestEnv(t)
	user := e.tokenFor(t, createUser(t, e, "plain"))
	admin := e.tokenFor(t, createUser(t, e, "boss", models.RoleAdmin))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"upper case user list", "GET", "/api/v1/USERS", user, fiber.StatusForbidden},
		{"mixed case user list", "GET", "/API/V1/Users", user, fiber.StatusForbidden},
		{"trailing slash user list", "GET", "/api/v1/users/", user, fiber.StatusForbidden},
		{"mixed case user by id", "GET", "/api/v1/Users/1", user, fiber.StatusForbidden},
		{"mixed case user comments", "GET", "/api/v1/users/1/COMMENTS", user, fiber.StatusForbidden},
		{"mixed case feature flags", "GET", "/api/v1/ADMIN/feature-flags", user, fiber.StatusForbidden},
		{"trailing slash user list as admin", "GET", "/api/v1/users/", admin, fiber.StatusOK},
		{"upper case is not a route", "GET", "/api/v1/USERS", admin, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := e.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, status, env.Message)
		})
	}
}

func TestAuthenticationSurvivesUserCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	e := newTestEnv(t)
	alice := createUser(t, e, "alice")
	admin := e.tokenFor(t, createUser(t, e, "boss", models.RoleAdmin))
	token := e.tokenFor(t, alice)

	for i := range 3 {
		status, env := e.do(t, "GET", "/api/v1/users/me", token, nil)
		require.Equal(t, fiber.StatusOK, status, "request %d: %s", i, env.Message)
	}
	require.True(t, mr.Exists(cache.UserKey(alice.ID)))

	status, env := e.do(t, "PUT", "/api/v1/users/me", token, fiber.Map{"profilePictureUri": "https://img/a.png"})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	// Refill the cache, then edit through the admin path.
	status, _ = e.do(t, "GET", "/api/v1/users/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	path := fmt.Sprintf("/api/v1/users/%d", alice.ID)
	status, _ = e.do(t, "GET", path, admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, env = e.do(t, "PUT", path, admin, fiber.Map{"email": "alice@look.dev"})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, env = e.do(t, "POST", "/api/auth/login", "", fiber.Map{"username": "alice", "password": testutil.Password})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	var stored models.User
	require.NoError(t, e.db.First(&stored, alice.ID).Error)
	assert.True(t, stored.CanAuthenticate())
	assert.Equal(t, "alice@look.dev", stored.Email)
	assert.Equal(t, "https://img/a.png", stored.ProfilePictureURI)
}
