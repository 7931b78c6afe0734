package service

import (
	"context"
	"strings"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"
)

// CommentService handles comments on posts.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// ListComments returns a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// ListCommentsByUser is the admin view of one user's comments.
func (s *CommentService) ListCommentsByUser(ctx context.Context, actor auth.Identity, userID uint) (comments []*models.Comment, err error) {
	ctx, span := startSpan(ctx, "CommentService", "ListCommentsByUser", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.comments.ListByUser(ctx, userID)
}

func (s *CommentService) CreateComment(ctx context.Context, actor auth.Identity, postID uint, content string) (comment *models.Comment, err error) {
	ctx, span := startSpan(ctx, "CommentService", "CreateComment", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Comment content cannot be blank")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comment = &models.Comment{PostID: postID, UserID: actor.UserID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Username = actor.Username
	return comment, nil
}

// UpdateComment is owner only; admins cannot edit other users' words.
func (s *CommentService) UpdateComment(ctx context.Context, actor auth.Identity, id uint, content string) (comment *models.Comment, err error) {
	ctx, span := startSpan(ctx, "CommentService", "UpdateComment", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Comment content cannot be blank")
	}
	comment, err = s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.UserID {
		return nil, models.NewForbiddenError("User not authorized to update this comment")
	}
	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actor auth.Identity, id uint) (err error) {
	ctx, span := startSpan(ctx, "CommentService", "DeleteComment", &actor)
	defer func() { observability.EndSpan(span, err) }()

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.UserID && !actor.IsAdmin() {
		return models.NewForbiddenError("User not authorized to delete this comment")
	}
	return s.comments.Delete(ctx, id)
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}
