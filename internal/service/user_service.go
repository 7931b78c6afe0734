package service

import (
	"context"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"
)

// UserService covers profiles, administration and the follow graph.
type UserService struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

// UpdateProfileInput changes the caller's own profile. Nil fields are kept.
type UpdateProfileInput struct {
	Username          *string
	Email             *string
	ProfilePictureURI *string
}

// CreateUserInput is the admin form of registration.
type CreateUserInput struct {
	Username          string
	Email             string
	Password          string
	ProfilePictureURI string
	Roles             []string
	// Enabled defaults to true
	Enabled *bool
}

// UpdateUserInput is an admin edit of any account. Nil fields are kept.
type UpdateUserInput struct {
	Username          *string
	Email             *string
	Password          *string
	ProfilePictureURI *string
	Roles             []string
	Enabled           *bool
}

// NewUserService returns a new UserService.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository) *UserService {
	return &UserService{users: users, roles: roles}
}

func (s *UserService) GetMyProfile(ctx context.Context, actor auth.Identity) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "GetMyProfile", &actor)
	defer func() { observability.EndSpan(span, err) }()

	return s.users.GetByID(ctx, actor.UserID)
}

// GetUser is the admin view of any account.
func (s *UserService) GetUser(ctx context.Context, actor auth.Identity, id uint) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "GetUser", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// ListUsers pages through every account; admin tier only.
func (s *UserService) ListUsers(ctx context.Context, actor auth.Identity, page repository.Page) (users []*models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "ListUsers", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, page)
}

// UpdateMyProfile applies in to the caller. usernameChanged tells the caller
// that the current token no longer carries the right username.
func (s *UserService) UpdateMyProfile(ctx context.Context, actor auth.Identity, in UpdateProfileInput) (user *models.User, usernameChanged bool, err error) {
	ctx, span := startSpan(ctx, "UserService", "UpdateMyProfile", &actor)
	defer func() { observability.EndSpan(span, err) }()

	user, err = s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, false, err
	}
	usernameChanged, err = s.applyIdentityChanges(ctx, user, in.Username, in.Email)
	if err != nil {
		return nil, false, err
	}
	if in.ProfilePictureURI != nil {
		user.ProfilePictureURI = *in.ProfilePictureURI
	}
	if err := s.users.Update(ctx, user, repository.UserWrite{}); err != nil {
		return nil, false, duplicateUserError(err, "")
	}
	return user, usernameChanged, nil
}

// applyIdentityChanges re-checks uniqueness only for values that differ.
func (s *UserService) applyIdentityChanges(ctx context.Context, user *models.User, username, email *string) (bool, error) {
	changed := false
	if username != nil && *username != user.Username {
		taken, err := s.users.ExistsByUsername(ctx, *username)
		if err != nil {
			return false, err
		}
		if taken {
			return false, models.NewValidationError("Username is already taken!")
		}
		user.Username = *username
		changed = true
	}
	if email != nil && *email != user.Email {
		inUse, err := s.users.ExistsByEmail(ctx, *email)
		if err != nil {
			return false, err
		}
		if inUse {
			return false, models.NewValidationError("Email is already in use!")
		}
		user.Email = *email
	}
	return changed, nil
}

// CreateUser lets an admin create an account with an explicit role set.
func (s *UserService) CreateUser(ctx context.Context, actor auth.Identity, in CreateUserInput) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "CreateUser", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("Username is already taken!")
	}
	inUse, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, models.NewValidationError("Email is already in use!")
	}
	roles, err := resolveRoles(ctx, s.roles, in.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	user = &models.User{
		Username:              in.Username,
		Email:                 in.Email,
		Password:              hash,
		ProfilePictureURI:     in.ProfilePictureURI,
		Roles:                 roles,
		Enabled:               enabled,
		AccountNonExpired:     true,
		AccountNonLocked:      enabled,
		CredentialsNonExpired: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, duplicateUserError(err, "")
	}
	return user, nil
}

// UpdateUser lets an admin edit any account. Disabling oneself is rejected.
func (s *UserService) UpdateUser(ctx context.Context, actor auth.Identity, id uint, in UpdateUserInput) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "UpdateUser", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Enabled != nil && !*in.Enabled && id == actor.UserID {
		return nil, models.NewValidationError("Cannot disable your own account.")
	}
	if in.Roles != nil && !actor.IsSuperAdmin() {
		return nil, models.NewForbiddenError("Access Denied: only a superadmin may change roles")
	}

	user, err = s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyIdentityChanges(ctx, user, in.Username, in.Email); err != nil {
		return nil, err
	}
	if in.ProfilePictureURI != nil {
		user.ProfilePictureURI = *in.ProfilePictureURI
	}
	if in.Roles != nil {
		roles, err := resolveRoles(ctx, s.roles, in.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}
	write := repository.UserWrite{Status: in.Enabled != nil}
	if in.Enabled != nil {
		user.Enabled = *in.Enabled
		user.AccountNonLocked = *in.Enabled
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		write.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user, write); err != nil {
		return nil, duplicateUserError(err, "")
	}
	return user, nil
}

// UpdateUserRoles replaces the role set of id. Two concurrent replacements
// are not serialized and the last write wins.
func (s *UserService) UpdateUserRoles(ctx context.Context, actor auth.Identity, id uint, names []string) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "UpdateUserRoles", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	user, err = s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := resolveRoles(ctx, s.roles, names)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRoles(ctx, id, roles); err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

// SetUserEnabled toggles the account; accountNonLocked follows enabled.
func (s *UserService) SetUserEnabled(ctx context.Context, actor auth.Identity, id uint, enabled bool) (user *models.User, err error) {
	ctx, span := startSpan(ctx, "UserService", "SetUserEnabled", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err = s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.UserID {
		return nil, models.NewValidationError("Cannot disable your own account.")
	}
	if err := s.users.SetEnabled(ctx, id, enabled); err != nil {
		return nil, err
	}
	user.Enabled = enabled
	user.AccountNonLocked = enabled
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "UserService", "DeleteUser", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return models.NewValidationError("Cannot delete your own account using this endpoint.")
	}
	return s.users.Delete(ctx, id)
}

// Follow adds actor -> id to the graph. Self-follow is allowed.
func (s *UserService) Follow(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "UserService", "Follow", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.requireUser(ctx, id); err != nil {
		return err
	}
	return s.users.Follow(ctx, actor.UserID, id)
}

func (s *UserService) Unfollow(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "UserService", "Unfollow", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.requireUser(ctx, id); err != nil {
		return err
	}
	return s.users.Unfollow(ctx, actor.UserID, id)
}

func (s *UserService) Followers(ctx context.Context, id uint, page repository.Page) ([]*models.User, error) {
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}
	return s.users.Followers(ctx, id, page)
}

func (s *UserService) Following(ctx context.Context, id uint, page repository.Page) ([]*models.User, error) {
	if err := s.requireUser(ctx, id); err != nil {
		return nil, err
	}
	return s.users.Following(ctx, id, page)
}

func (s *UserService) requireUser(ctx context.Context, id uint) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	return nil
}
