package server

import (
	"look/internal/models"
	"look/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/v1/posts
// @Summary List posts
// @Description Public endpoint, newest first
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Envelope{data=[]models.PostResponse}
// @Router /v1/posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Posts fetched successfully", models.ToPostResponses(posts))
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Get post by ID
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Failure 404 {object} models.Envelope
// @Router /v1/posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post fetched successfully", models.ToPostResponse(post))
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a new post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "Post"
// @Success 201 {object} models.Envelope{data=models.PostResponse}
// @Failure 400 {object} models.Envelope
// @Router /v1/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req postRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), actor, service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageURI: req.ImageURI,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Post created successfully", models.ToPostResponse(post))
}

// UpdatePost handles PUT /api/v1/posts/:id
// @Summary Update a post
// @Description Owner or admin-tier only
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Post"
// @Success 200 {object} models.Envelope{data=models.PostResponse}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req updatePostRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), actor, id, service.UpdatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageURI: req.ImageURI,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post updated successfully", models.ToPostResponse(post))
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete a post
// @Description Owner or admin-tier only
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/v1/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postService.LikePost(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post liked successfully", nil)
}

// UnlikePost handles DELETE /api/v1/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.postService.UnlikePost(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Post unliked successfully", nil)
}
