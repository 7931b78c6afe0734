package service

import (
	"context"
	"errors"
	"testing"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	existsByUsernameFn func(context.Context, string) (bool, error)
	existsByEmailFn    func(context.Context, string) (bool, error)
	existsFn           func(context.Context, uint) (bool, error)
	createFn           func(context.Context, *models.User) error
	updateFn           func(context.Context, *models.User, repository.UserWrite) error
	updateRolesFn      func(context.Context, uint, models.RoleSet) error
	setEnabledFn       func(context.Context, uint, bool) error
	deleteFn           func(context.Context, uint) error
	usernamesFn        func(context.Context, ...uint) (map[uint]string, error)
	followFn           func(context.Context, uint, uint) error
	unfollowFn         func(context.Context, uint, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(context.Context, string) (*models.User, error) { return nil, nil }
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.existsByUsernameFn(ctx, username)
}
func (s *userRepoStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.existsByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) Update(ctx context.Context, u *models.User, w repository.UserWrite) error {
	return s.updateFn(ctx, u, w)
}
func (s *userRepoStub) UpdateRoles(ctx context.Context, id uint, roles models.RoleSet) error {
	return s.updateRolesFn(ctx, id, roles)
}
func (s *userRepoStub) SetEnabled(ctx context.Context, id uint, enabled bool) error {
	return s.setEnabledFn(ctx, id, enabled)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *userRepoStub) List(context.Context, repository.Page) ([]*models.User, error) {
	return nil, nil
}
func (s *userRepoStub) Usernames(ctx context.Context, ids ...uint) (map[uint]string, error) {
	return s.usernamesFn(ctx, ids...)
}
func (s *userRepoStub) Follow(ctx context.Context, a, b uint) error   { return s.followFn(ctx, a, b) }
func (s *userRepoStub) Unfollow(ctx context.Context, a, b uint) error { return s.unfollowFn(ctx, a, b) }
func (s *userRepoStub) IsFollowing(context.Context, uint, uint) (bool, error) {
	return false, nil
}
func (s *userRepoStub) Followers(context.Context, uint, repository.Page) ([]*models.User, error) {
	return nil, nil
}
func (s *userRepoStub) Following(context.Context, uint, repository.Page) ([]*models.User, error) {
	return nil, nil
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user", Email: "user@example.com", Enabled: true}, nil
		},
		getByUsernameFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		existsByUsernameFn: func(context.Context, string) (bool, error) { return false, nil },
		existsByEmailFn:    func(context.Context, string) (bool, error) { return false, nil },
		existsFn:           func(context.Context, uint) (bool, error) { return true, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		updateFn:      func(context.Context, *models.User, repository.UserWrite) error { return nil },
		updateRolesFn: func(context.Context, uint, models.RoleSet) error { return nil },
		setEnabledFn:  func(context.Context, uint, bool) error { return nil },
		deleteFn:  func(context.Context, uint) error { return nil },
		usernamesFn:   func(context.Context, ...uint) (map[uint]string, error) { return map[uint]string{}, nil },
		followFn:      func(context.Context, uint, uint) error { return nil },
		unfollowFn:    func(context.Context, uint, uint) error { return nil },
	}
}

// roleRepoStub knows the default vocabulary unless known is replaced.
type roleRepoStub struct {
	known []string
}

func (s *roleRepoStub) Names(context.Context) ([]string, error) { return s.known, nil }
func (s *roleRepoStub) FindExisting(_ context.Context, names []string) ([]string, error) {
	var out []string
	for _, n := range names {
		for _, k := range s.known {
			if n == k {
				out = append(out, n)
			}
		}
	}
	return out, nil
}
func (s *roleRepoStub) EnsureRoles(context.Context, ...string) error { return nil }

func defaultRoles() *roleRepoStub {
	return &roleRepoStub{known: models.DefaultRoles}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	existsFn     func(context.Context, uint) (bool, error)
	createFn     func(context.Context, *models.Post) error
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, uint) error
	addLikeFn    func(context.Context, uint, uint) error
	hasLikeFn    func(context.Context, uint, uint) (bool, error)
	removeLikeFn func(context.Context, uint, uint) (bool, error)
	feedFn       func(context.Context, uint, repository.Page) ([]*models.Post, error)
}

func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) { return s.existsFn(ctx, id) }
func (s *postRepoStub) List(context.Context, repository.Page) ([]*models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) ListByUser(context.Context, uint, repository.Page) ([]*models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) Feed(ctx context.Context, userID uint, page repository.Page) ([]*models.Post, error) {
	return s.feedFn(ctx, userID, page)
}
func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) Update(ctx context.Context, p *models.Post) error { return s.updateFn(ctx, p) }
func (s *postRepoStub) Delete(ctx context.Context, id uint) error        { return s.deleteFn(ctx, id) }
func (s *postRepoStub) AddLike(ctx context.Context, userID, postID uint) error {
	return s.addLikeFn(ctx, userID, postID)
}
func (s *postRepoStub) HasLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.hasLikeFn(ctx, userID, postID)
}
func (s *postRepoStub) RemoveLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.removeLikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		existsFn:     func(context.Context, uint) (bool, error) { return true, nil },
		createFn:     func(context.Context, *models.Post) error { return nil },
		updateFn:     func(context.Context, *models.Post) error { return nil },
		deleteFn:     func(context.Context, uint) error { return nil },
		addLikeFn:    func(context.Context, uint, uint) error { return nil },
		hasLikeFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		removeLikeFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
		feedFn: func(context.Context, uint, repository.Page) ([]*models.Post, error) {
			return nil, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Comment, error)
	createFn  func(context.Context, *models.Comment) error
	updateFn  func(context.Context, *models.Comment) error
	deleteFn  func(context.Context, uint) error
}

func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(context.Context, uint) ([]*models.Comment, error) {
	return []*models.Comment{}, nil
}
func (s *commentRepoStub) ListByUser(context.Context, uint) ([]*models.Comment, error) {
	return []*models.Comment{}, nil
}
func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		createFn:  func(context.Context, *models.Comment) error { return nil },
		updateFn:  func(context.Context, *models.Comment) error { return nil },
		deleteFn:  func(context.Context, uint) error { return nil },
	}
}

func identity(id uint, roles ...string) auth.Identity {
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	return auth.Identity{UserID: id, Username: "user", Roles: models.NewRoleSet(roles...)}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR
// and the given message.
func assertValidationError(t *testing.T, err error, message string) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, message, err.Error())
}
