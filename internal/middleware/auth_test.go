package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"look/internal/auth"
	"look/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type usersStub map[uint]*models.User

func (s usersStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	if id == 999 {
		return nil, errors.New("connection refused")
	}
	return nil, models.NewNotFoundError("User", id)
}

func activeUser(id uint, username string, roles ...string) *models.User {
	return &models.User{
		ID:                    id,
		Username:              username,
		Roles:                 models.NewRoleSet(roles...),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

func newIdentifyApp(t *testing.T, users usersStub) (*fiber.App, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	app := fiber.New()
	app.Use(Identify(IdentifyConfig{
		Tokens:          tokens,
		Users:           users,
		QueryTokenPaths: []string{"/ws"},
	}))
	handler := func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.JSON(fiber.Map{"anonymous": true})
		}
		ctxUser, _ := c.UserContext().Value(UserIDKey).(uint)
		return c.JSON(fiber.Map{"userID": id.UserID, "username": id.Username, "roles": id.Roles, "ctxUser": ctxUser})
	}
	app.Get("/test", handler)
	app.Get("/ws", handler)
	return app, tokens
}

func identifyResult(t *testing.T, app *fiber.App, req *http.Request) map[string]any {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestIdentify(t *testing.T) {
	disabled := activeUser(3, "carol", models.RoleUser)
	disabled.Enabled = false
	users := usersStub{
		1: activeUser(1, "alice", models.RoleUser),
		2: activeUser(2, "admin", models.RoleUser, models.RoleAdmin),
		3: disabled,
	}
	app, tokens := newIdentifyApp(t, users)

	issue := func(u *models.User) string {
		token, err := tokens.Issue(u)
		require.NoError(t, err)
		return token
	}
	forged := func() string {
		claims := jwt.MapClaims{
			"sub": "1",
			"iss": auth.Issuer,
			"aud": auth.Audience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name       string
		target     string
		authHeader string
		wantUserID float64
	}{
		{name: "valid bearer token", target: "/test", authHeader: "Bearer " + issue(users[1]), wantUserID: 1},
		{name: "scheme is case insensitive", target: "/test", authHeader: "bearer " + issue(users[2]), wantUserID: 2},
		{name: "missing header", target: "/test"},
		{name: "basic scheme", target: "/test", authHeader: "Basic dXNlcjpwYXNz"},
		{name: "garbage token", target: "/test", authHeader: "Bearer not-a-jwt"},
		{name: "wrong signature", target: "/test", authHeader: "Bearer " + forged()},
		{name: "disabled account", target: "/test", authHeader: "Bearer " + issue(disabled)},
		{name: "deleted account", target: "/test", authHeader: "Bearer " + issue(activeUser(42, "ghost"))},
		{name: "lookup failure", target: "/test", authHeader: "Bearer " + issue(activeUser(999, "flaky"))},
		{name: "query token ignored off the websocket path", target: "/test?token=" + issue(users[1])},
		{name: "query token accepted on the websocket path", target: "/ws?token=" + issue(users[1]), wantUserID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			body := identifyResult(t, app, req)
			if tt.wantUserID == 0 {
				assert.Equal(t, true, body["anonymous"])
				return
			}
			assert.Equal(t, tt.wantUserID, body["userID"])
			assert.Equal(t, tt.wantUserID, body["ctxUser"])
		})
	}
}

func TestIdentify_RolesComeFromStorage(t *testing.T) {
	stored := activeUser(1, "alice", models.RoleUser)
	users := usersStub{1: stored}
	app, tokens := newIdentifyApp(t, users)

	token, err := tokens.Issue(stored)
	require.NoError(t, err)

	// promoted after the token was issued
	stored.Roles = models.NewRoleSet(models.RoleUser, models.RoleAdmin)
	stored.Username = "alice2"

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	body := identifyResult(t, app, req)

	assert.Equal(t, "alice2", body["username"])
	assert.ElementsMatch(t, []any{models.RoleAdmin, models.RoleUser}, body["roles"])
}

func TestIdentityFrom_Anonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := IdentityFrom(c)
		assert.False(t, ok)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
