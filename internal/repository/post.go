package repository

import (
	"context"
	"time"

	"look/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts and their likes.
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, page Page) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, page Page) ([]*models.Post, error)
	Feed(ctx context.Context, userID uint, page Page) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	AddLike(ctx context.Context, userID, postID uint) error
	HasLike(ctx context.Context, userID, postID uint) (bool, error)
	RemoveLike(ctx context.Context, userID, postID uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// base selects posts with the author's username and the computed like count.
func (r *postRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*, COALESCE(users.username, ?) AS username, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count",
			models.UnknownUsername).
		Joins("LEFT JOIN users ON users.id = posts.user_id")
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.base(ctx).Where("posts.id = ?", id).First(&post).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, page Page) ([]*models.Post, error) {
	return r.find(page.apply(r.base(ctx)))
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, page Page) ([]*models.Post, error) {
	return r.find(page.apply(r.base(ctx).Where("posts.user_id = ?", userID)))
}

// Feed returns posts written by users that userID follows, newest first.
func (r *postRepository) Feed(ctx context.Context, userID uint, page Page) ([]*models.Post, error) {
	q := r.base(ctx).
		Where("posts.user_id IN (SELECT following_id FROM follows WHERE follower_id = ?)", userID)
	return r.find(page.apply(q))
}

func (r *postRepository) find(q *gorm.DB) ([]*models.Post, error) {
	var posts []*models.Post
	if err := q.Order("posts.created_at DESC, posts.id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(post).
		Select("title", "content", "image_uri", "updated_at").
		Updates(post)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes the post together with its likes and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Post", id)
	}
	return nil
}

// AddLike inserts a like. A second like for the same pair, including one that
// lost an insert race, is returned as a DuplicateError.
func (r *postRepository) AddLike(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if dup, ok := uniqueViolation(err, "like"); ok {
			return dup
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) HasLike(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// RemoveLike reports whether a like was deleted.
func (r *postRepository) RemoveLike(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
