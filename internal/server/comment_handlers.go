package server

import (
	"look/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/v1/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Comments fetched successfully", models.ToCommentResponses(comments))
}

// CreateComment handles POST /api/v1/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req commentRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), actor, postID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Comment created successfully", models.ToCommentResponse(comment))
}

// UpdateComment handles PUT /api/v1/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req commentRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), actor, id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Comment updated successfully", models.ToCommentResponse(comment))
}

// DeleteComment handles DELETE /api/v1/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.commentService.DeleteComment(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
