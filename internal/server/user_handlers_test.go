package server

import (
	"fmt"
	"testing"

	"look/internal/models"
	"look/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMyProfile_ReissuesTokenOnRename(t *testing.T) {
	e := newTestEnv(t)
	alice := createUser(t, e, "alice")
	token := e.tokenFor(t, alice)

	status, env := e.do(t, "PUT", "/api/v1/users/me", token, fiber.Map{"profilePictureUri": "https://img/a.png"})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	resp := decode[models.UserResponse](t, env.Data)
	assert.Equal(t, "https://img/a.png", resp.ProfilePictureURI)
	assert.Empty(t, resp.AccessToken)

	status, env = e.do(t, "PUT", "/api/v1/users/me", token, fiber.Map{"username": "alicia"})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, "Profile updated successfully", env.Message)
	resp = decode[models.UserResponse](t, env.Data)
	assert.Equal(t, "alicia", resp.Username)
	require.NotEmpty(t, resp.AccessToken)

	status, env = e.do(t, "GET", "/api/v1/users/me", resp.AccessToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alicia", decode[models.UserResponse](t, env.Data).Username)
}

func TestUpdateMyProfile_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	alice := createUser(t, e, "alice")
	createUser(t, e, "bob")

	status, env := e.do(t, "PUT", "/api/v1/users/me", e.tokenFor(t, alice), fiber.Map{"username": "bob"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Username is already taken!", env.Message)
}

func TestAdminUserManagement(t *testing.T) {
	e := newTestEnv(t)
	admin := createUser(t, e, "admin", models.RoleAdmin)
	super := createUser(t, e, "root", models.RoleSuperAdmin)
	user := createUser(t, e, "carol")
	adminToken, superToken, userToken := e.tokenFor(t, admin), e.tokenFor(t, super), e.tokenFor(t, user)

	t.Run("ListRequiresAdminTier", func(t *testing.T) {
		status, env := e.do(t, "GET", "/api/v1/users", userToken, nil)
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, MessageAccessDenied, env.Message)

		status, env = e.do(t, "GET", "/api/v1/users", adminToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Users fetched successfully", env.Message)
		assert.Len(t, decode[[]models.UserResponse](t, env.Data), 3)
	})

	t.Run("GetUserByID", func(t *testing.T) {
		status, env := e.do(t, "GET", fmt.Sprintf("/api/v1/users/%d", user.ID), adminToken, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "User profile fetched successfully", env.Message)

		status, env = e.do(t, "GET", "/api/v1/users/9999", adminToken, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
		assert.Equal(t, "User not found with id: 9999", env.Message)
	})

	t.Run("CreateUserWithUnknownRole", func(t *testing.T) {
		status, env := e.do(t, "POST", "/api/v1/users", adminToken, fiber.Map{
			"username": "dave", "email": "dave@example.com", "password": "secret1",
			"roles": []string{"ROLE_USER", "ROLE_WIZARD"},
		})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Invalid role(s) specified: [ROLE_WIZARD]", env.Message)
	})

	t.Run("CreateUser", func(t *testing.T) {
		status, env := e.do(t, "POST", "/api/v1/users", adminToken, fiber.Map{
			"username": "dave", "email": "dave@example.com", "password": "secret1",
			"roles": []string{"ROLE_USER"}, "enabled": false,
		})
		require.Equal(t, fiber.StatusCreated, status, env.Message)
		created := decode[models.UserResponse](t, env.Data)
		assert.False(t, created.Enabled)
	})

	t.Run("RolesNeedSuperadmin", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/users/%d/roles", user.ID)
		body := fiber.Map{"roles": []string{"ROLE_USER", "ROLE_ADMIN"}}

		status, _ := e.do(t, "PUT", path, adminToken, body)
		assert.Equal(t, fiber.StatusForbidden, status)

		status, env := e.do(t, "PUT", path, superToken, body)
		require.Equal(t, fiber.StatusOK, status, env.Message)
		assert.Equal(t, "User roles updated successfully", env.Message)
		assert.Equal(t, models.RoleSet{models.RoleAdmin, models.RoleUser}, decode[models.UserResponse](t, env.Data).Roles)

		status, env = e.do(t, "PUT", path, superToken, fiber.Map{"roles": []string{}})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Roles cannot be empty", decode[map[string]string](t, env.Data)["roles"])
	})

	t.Run("StatusToggle", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/users/%d/status", user.ID)

		status, env := e.do(t, "PATCH", path, adminToken, fiber.Map{})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Enabled status cannot be null", decode[map[string]string](t, env.Data)["enabled"])

		status, env = e.do(t, "PATCH", path, adminToken, fiber.Map{"enabled": false})
		require.Equal(t, fiber.StatusOK, status, env.Message)
		assert.Equal(t, "User status updated successfully", env.Message)

		// a disabled account's token stops resolving
		status, _ = e.do(t, "GET", "/api/v1/users/me", userToken, nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)

		status, env = e.do(t, "PATCH", fmt.Sprintf("/api/v1/users/%d/status", admin.ID), adminToken, fiber.Map{"enabled": false})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Cannot disable your own account.", env.Message)
	})

	t.Run("DeleteNeedsSuperadmin", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/users/%d", user.ID)

		status, _ := e.do(t, "DELETE", path, adminToken, nil)
		assert.Equal(t, fiber.StatusForbidden, status)

		status, env := e.do(t, "DELETE", fmt.Sprintf("/api/v1/users/%d", super.ID), superToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Cannot delete your own account using this endpoint.", env.Message)

		status, _ = e.do(t, "DELETE", path, superToken, nil)
		assert.Equal(t, fiber.StatusNoContent, status)

		status, _ = e.do(t, "GET", path, adminToken, nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})
}

func TestFollowGraphAndFeed(t *testing.T) {
	e := newTestEnv(t)
	alice := createUser(t, e, "alice")
	bob := createUser(t, e, "bob")
	aliceToken := e.tokenFor(t, alice)
	testutil.CreatePost(t, e.db, bob.ID, "from bob")

	status, env := e.do(t, "POST", fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, "User followed successfully", env.Message)

	status, env = e.do(t, "GET", fmt.Sprintf("/api/v1/users/%d/followers", bob.ID), aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	followers := decode[[]models.UserResponse](t, env.Data)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	_, env = e.do(t, "GET", fmt.Sprintf("/api/v1/users/%d/following", alice.ID), aliceToken, nil)
	assert.Len(t, decode[[]models.UserResponse](t, env.Data), 1)

	status, env = e.do(t, "GET", "/api/v1/users/me/feed", aliceToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	feed := decode[[]models.PostResponse](t, env.Data)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Title)

	_, env = e.do(t, "GET", fmt.Sprintf("/api/v1/users/%d/posts", bob.ID), aliceToken, nil)
	assert.Len(t, decode[[]models.PostResponse](t, env.Data), 1)

	_, env = e.do(t, "GET", "/api/v1/users/me", e.tokenFor(t, bob), nil)
	assert.EqualValues(t, 1, decode[models.UserResponse](t, env.Data).FollowersCount)

	status, _ = e.do(t, "DELETE", fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), aliceToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	_, env = e.do(t, "GET", "/api/v1/users/me/feed", aliceToken, nil)
	assert.Empty(t, decode[[]models.PostResponse](t, env.Data))

	status, _ = e.do(t, "POST", "/api/v1/users/9999/follow", aliceToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
