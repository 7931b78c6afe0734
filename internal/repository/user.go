// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"look/internal/cache"
	"look/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, w UserWrite) error
	UpdateRoles(ctx context.Context, id uint, roles models.RoleSet) error
	SetEnabled(ctx context.Context, id uint, enabled bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]*models.User, error)
	Usernames(ctx context.Context, ids ...uint) (map[uint]string, error)
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, id uint, page Page) ([]*models.User, error)
	Following(ctx context.Context, id uint, page Page) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "users.*, " +
	"(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS followers_count, " +
	"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count"

// profileColumns are always written by Update. Password and the account
// status flags are written only when UserWrite asks for them.
var profileColumns = []string{"username", "email", "profile_picture_uri", "roles", "updated_at"}

// UserWrite selects the optional columns Update writes with the profile.
type UserWrite struct {
	// PasswordHash replaces the stored hash when non-empty.
	PasswordHash string
	// Status writes enabled and account_non_locked from the user.
	Status bool
}

func (w UserWrite) columns() []string {
	cols := profileColumns
	if w.PasswordHash != "" {
		cols = append(slices.Clone(cols), "password")
	}
	if w.Status {
		cols = append(slices.Clone(cols), "enabled", "account_non_locked")
	}
	return cols
}

// cachedUser is the Redis form of a User. Unlike the User JSON form it keeps
// the account status flags; it never carries the password hash.
type cachedUser struct {
	ID                    uint           `json:"id"`
	Username              string         `json:"username"`
	Email                 string         `json:"email"`
	ProfilePictureURI     string         `json:"profile_picture_uri"`
	Roles                 models.RoleSet `json:"roles"`
	Enabled               bool           `json:"enabled"`
	AccountNonExpired     bool           `json:"account_non_expired"`
	AccountNonLocked      bool           `json:"account_non_locked"`
	CredentialsNonExpired bool           `json:"credentials_non_expired"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	FollowersCount        int64          `json:"followers_count"`
	FollowingCount        int64          `json:"following_count"`
}

func toCachedUser(u *models.User) *cachedUser {
	return &cachedUser{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		ProfilePictureURI:     u.ProfilePictureURI,
		Roles:                 u.Roles,
		Enabled:               u.Enabled,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
		FollowersCount:        u.FollowersCount,
		FollowingCount:        u.FollowingCount,
	}
}

func (c *cachedUser) user() *models.User {
	return &models.User{
		ID:                    c.ID,
		Username:              c.Username,
		Email:                 c.Email,
		ProfilePictureURI:     c.ProfilePictureURI,
		Roles:                 c.Roles,
		Enabled:               c.Enabled,
		AccountNonExpired:     c.AccountNonExpired,
		AccountNonLocked:      c.AccountNonLocked,
		CredentialsNonExpired: c.CredentialsNonExpired,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
		FollowersCount:        c.FollowersCount,
		FollowingCount:        c.FollowingCount,
	}
}

func (r *userRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).Select(userColumns)
}

// GetByID is cache-aside. The returned user never includes the password
// hash, whether it came from Redis or the database.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	cached, err := cache.Aside(ctx, cache.UserKey(id), cache.UserTTL, func(ctx context.Context) (*cachedUser, error) {
		var user models.User
		if err := r.withCounts(ctx).Where("users.id = ?", id).First(&user).Error; err != nil {
			return nil, notFoundOr(err, "User", id)
		}
		return toCachedUser(&user), nil
	})
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return cached.user(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username = ?", username)
}

// getBy returns (nil, nil) when no row matches.
func (r *userRepository) getBy(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *userRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts user. A unique violation is returned as a DuplicateError
// naming username or email.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Roles == nil {
		user.Roles = models.RoleSet{}
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if dup, ok := uniqueViolation(err, "username", "email"); ok {
			return dup
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the profile columns of user, plus whatever w selects, in a
// single statement.
func (r *userRepository) Update(ctx context.Context, user *models.User, w UserWrite) error {
	user.UpdatedAt = time.Now()
	if user.Roles == nil {
		user.Roles = models.RoleSet{}
	}
	row := *user
	row.Password = w.PasswordHash
	res := r.db.WithContext(ctx).Model(&row).Select(w.columns()).Updates(&row)
	if res.Error != nil {
		if dup, ok := uniqueViolation(res.Error, "username", "email"); ok {
			return dup
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// UpdateRoles replaces the stored set. Concurrent callers race and the last
// write wins.
func (r *userRepository) UpdateRoles(ctx context.Context, id uint, roles models.RoleSet) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"roles": roles})
}

// SetEnabled toggles enabled and keeps account_non_locked in step with it.
func (r *userRepository) SetEnabled(ctx context.Context, id uint, enabled bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"enabled":            enabled,
		"account_non_locked": enabled,
	})
}

func (r *userRepository) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	values["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Delete removes the user with its follow edges and likes. Posts, comments
// and chats stay and render the author as unknown.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var affected []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ?", id).Pluck("following_id", &affected).Error; err != nil {
			return err
		}
		var followers []uint
		if err := tx.Model(&models.Follow{}).
			Where("following_id = ?", id).Pluck("follower_id", &followers).Error; err != nil {
			return err
		}
		affected = append(affected, followers...)

		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "User", id)
	}
	cache.InvalidateUser(ctx, append(affected, id)...)
	return nil
}

func (r *userRepository) List(ctx context.Context, page Page) ([]*models.User, error) {
	var users []*models.User
	if err := page.apply(r.withCounts(ctx)).Order("users.id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Usernames resolves ids to usernames; missing ids are absent from the map.
func (r *userRepository) Usernames(ctx context.Context, ids ...uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID       uint
		Username string
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "username").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.ID] = row.Username
	}
	return out, nil
}

// Follow inserts the edge; an existing edge is left untouched.
func (r *userRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, followerID, followingID)
	return nil
}

// Unfollow removes the edge if present.
func (r *userRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, followerID, followingID)
	return nil
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Followers(ctx context.Context, id uint, page Page) ([]*models.User, error) {
	return r.graph(ctx, "follows.follower_id = users.id", "follows.following_id = ?", id, page)
}

func (r *userRepository) Following(ctx context.Context, id uint, page Page) ([]*models.User, error) {
	return r.graph(ctx, "follows.following_id = users.id", "follows.follower_id = ?", id, page)
}

func (r *userRepository) graph(ctx context.Context, join, where string, id uint, page Page) ([]*models.User, error) {
	var users []*models.User
	q := r.withCounts(ctx).
		Joins("JOIN follows ON "+join).
		Where(where, id).
		Order("follows.created_at ASC, users.id ASC")
	if err := page.apply(q).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
