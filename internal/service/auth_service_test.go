package service

import (
	"context"
	"testing"
	"time"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-key-for-unit-tests-only", time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*userRepoStub)
		roles   *roleRepoStub
		wantMsg string
		wantErr string
	}{
		{
			name:    "username taken",
			mutate:  func(r *userRepoStub) { r.existsByUsernameFn = func(context.Context, string) (bool, error) { return true, nil } },
			wantMsg: "Error: Username is already taken!",
		},
		{
			name:    "email in use",
			mutate:  func(r *userRepoStub) { r.existsByEmailFn = func(context.Context, string) (bool, error) { return true, nil } },
			wantMsg: "Error: Email is already in use!",
		},
		{
			name: "lost race on email",
			mutate: func(r *userRepoStub) {
				r.createFn = func(context.Context, *models.User) error { return &repository.DuplicateError{Field: "email"} }
			},
			wantMsg: "Error: Email is already in use!",
		},
		{
			name:    "default role missing",
			roles:   &roleRepoStub{},
			wantErr: models.CodeInternal,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			users := noopUserRepo()
			if tc.mutate != nil {
				tc.mutate(users)
			}
			roles := tc.roles
			if roles == nil {
				roles = defaultRoles()
			}
			svc := NewAuthService(users, roles, newTokens())
			_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@x.com", Password: "pw123456"})
			if tc.wantMsg != "" {
				assertValidationError(t, err, tc.wantMsg)
				return
			}
			assertAppError(t, err, tc.wantErr)
		})
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	t.Parallel()

	var created *models.User
	users := noopUserRepo()
	users.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 7
		created = u
		return nil
	}
	svc := NewAuthService(users, defaultRoles(), newTokens())

	user, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, models.RoleSet{models.RoleUser}, user.Roles)
	assert.True(t, user.CanAuthenticate())
	require.NotNil(t, created)
	assert.NotEqual(t, "pw123456", created.Password)
	assert.True(t, auth.CheckPassword(created.Password, "pw123456"))
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("pw123456")
	require.NoError(t, err)
	stored := func(enabled bool) *models.User {
		return &models.User{
			ID: 3, Username: "alice", Email: "alice@x.com", Password: hash,
			Roles:   models.NewRoleSet(models.RoleUser),
			Enabled: enabled, AccountNonExpired: true, AccountNonLocked: enabled, CredentialsNonExpired: true,
		}
	}

	tests := []struct {
		name     string
		user     *models.User
		password string
		wantMsg  string
	}{
		{name: "unknown user", user: nil, password: "pw123456", wantMsg: "Invalid username or password"},
		{name: "wrong password", user: stored(true), password: "nope", wantMsg: "Invalid username or password"},
		{name: "disabled", user: stored(false), password: "pw123456", wantMsg: "User account is disabled"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			users := noopUserRepo()
			users.getByUsernameFn = func(context.Context, string) (*models.User, error) { return tc.user, nil }
			svc := NewAuthService(users, defaultRoles(), newTokens())

			_, err := svc.Login(context.Background(), "alice", tc.password)
			assertAppError(t, err, models.CodeUnauthorized)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}

	t.Run("token carries the username", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByUsernameFn = func(context.Context, string) (*models.User, error) { return stored(true), nil }
		tokens := newTokens()
		svc := NewAuthService(users, defaultRoles(), tokens)

		resp, err := svc.Login(context.Background(), "alice", "pw123456")
		require.NoError(t, err)
		assert.Equal(t, auth.TokenType, resp.TokenType)
		assert.Equal(t, uint(3), resp.UserID)

		claims, err := tokens.Parse(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, []string{models.RoleUser}, claims.Roles)
	})
}
