package service

import (
	"context"
	"errors"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"
)

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens *auth.TokenManager
}

// RegisterInput is the input for creating an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NewAuthService returns a new AuthService.
func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, roles: roles, tokens: tokens}
}

// Register creates an enabled ROLE_USER account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "AuthService", "Register", nil)
	defer func() {
		observability.EndSpan(span, err)
		recordAuth("register", err)
	}()

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("Error: Username is already taken!")
	}
	inUse, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, models.NewValidationError("Error: Email is already in use!")
	}

	found, err := s.roles.FindExisting(ctx, []string{models.RoleUser})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, models.NewInternalError(errors.New("default role ROLE_USER not found, database seeding might be required"))
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:              in.Username,
		Email:                 in.Email,
		Password:              hash,
		Roles:                 models.NewRoleSet(models.RoleUser),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateUserError(err, "Error: ")
	}
	return user, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (resp *models.AuthResponse, err error) {
	ctx, span := startSpan(ctx, "AuthService", "Login", nil)
	defer func() {
		observability.EndSpan(span, err)
		recordAuth("login", err)
	}()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, models.NewUnauthorizedError("Invalid username or password")
	}
	if !user.CanAuthenticate() {
		return nil, models.NewUnauthorizedError("User account is disabled")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	roles := user.Roles
	if roles == nil {
		roles = models.RoleSet{}
	}
	return &models.AuthResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Roles:       roles,
	}, nil
}

// IssueToken signs a fresh token for user, used after a username change.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}

func recordAuth(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.AuthAttempts.WithLabelValues(action, outcome).Inc()
}
