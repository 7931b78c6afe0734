package service

import (
	"context"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"
)

// PostService covers posts, likes and the follow feed.
type PostService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

type CreatePostInput struct {
	Title    string
	Content  string
	ImageURI string
}

// UpdatePostInput replaces title and content; ImageURI is kept when nil.
type UpdatePostInput struct {
	Title    string
	Content  string
	ImageURI *string
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository) *PostService {
	return &PostService{posts: posts, users: users}
}

func (s *PostService) CreatePost(ctx context.Context, actor auth.Identity, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "CreatePost", &actor)
	defer func() { observability.EndSpan(span, err) }()

	post = &models.Post{
		UserID:   actor.UserID,
		Title:    in.Title,
		Content:  in.Content,
		ImageURI: in.ImageURI,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Username = actor.Username
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// ListPosts returns all posts newest first.
func (s *PostService) ListPosts(ctx context.Context, page repository.Page) ([]*models.Post, error) {
	return s.posts.List(ctx, page)
}

func (s *PostService) ListPostsByUser(ctx context.Context, userID uint, page repository.Page) ([]*models.Post, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", userID)
	}
	return s.posts.ListByUser(ctx, userID, page)
}

// Feed returns posts by everyone the caller follows, newest first.
func (s *PostService) Feed(ctx context.Context, actor auth.Identity, page repository.Page) (posts []*models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "Feed", &actor)
	defer func() { observability.EndSpan(span, err) }()

	return s.posts.Feed(ctx, actor.UserID, page)
}

func (s *PostService) UpdatePost(ctx context.Context, actor auth.Identity, id uint, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "PostService", "UpdatePost", &actor)
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, models.NewForbiddenError("User not authorized to update this post")
	}
	post.Title = in.Title
	post.Content = in.Content
	if in.ImageURI != nil {
		post.ImageURI = *in.ImageURI
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "PostService", "DeletePost", &actor)
	defer func() { observability.EndSpan(span, err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != actor.UserID && !actor.IsAdmin() {
		return models.NewForbiddenError("User not authorized to delete this post")
	}
	return s.posts.Delete(ctx, id)
}

// LikePost records a like. The existence check is not atomic with the
// insert; a concurrent duplicate is caught by the unique index instead.
func (s *PostService) LikePost(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "PostService", "LikePost", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.requirePost(ctx, id); err != nil {
		return err
	}
	liked, err := s.posts.HasLike(ctx, actor.UserID, id)
	if err != nil {
		return err
	}
	if liked {
		return models.NewValidationError("User already liked this post")
	}
	if err := s.posts.AddLike(ctx, actor.UserID, id); err != nil {
		if _, dup := repository.DuplicateField(err); dup {
			return models.NewValidationError("User already liked this post")
		}
		return err
	}
	return nil
}

func (s *PostService) UnlikePost(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "PostService", "UnlikePost", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.requirePost(ctx, id); err != nil {
		return err
	}
	removed, err := s.posts.RemoveLike(ctx, actor.UserID, id)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundMessage("Like not found for this user and post")
	}
	return nil
}

func (s *PostService) requirePost(ctx context.Context, id uint) error {
	ok, err := s.posts.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
