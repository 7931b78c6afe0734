package server

import (
	"look/internal/models"
	"look/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/v1/users/me
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.UserResponse}
// @Failure 401 {object} models.Envelope
// @Router /v1/users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.GetMyProfile(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Profile fetched successfully", models.ToUserResponse(user))
}

// UpdateMyProfile handles PUT /api/v1/users/me
// @Summary Update current user profile
// @Description A username change invalidates the old token, so a fresh one is returned as accessToken
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Profile changes"
// @Success 200 {object} models.Envelope{data=models.UserResponse}
// @Failure 400 {object} models.Envelope
// @Router /v1/users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req updateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, usernameChanged, err := s.userService.UpdateMyProfile(c.UserContext(), actor, service.UpdateProfileInput{
		Username:          req.Username,
		Email:             req.Email,
		ProfilePictureURI: req.ProfilePictureURI,
	})
	if err != nil {
		return respondError(c, err)
	}

	resp := models.ToUserResponse(user)
	if usernameChanged {
		token, err := s.authService.IssueToken(user)
		if err != nil {
			return respondError(c, models.NewInternalError(err))
		}
		resp.AccessToken = token
	}
	return models.Respond(c, fiber.StatusOK, "Profile updated successfully", resp)
}

// GetMyFeed handles GET /api/v1/users/me/feed
// @Summary Feed of followed users' posts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Envelope{data=[]models.PostResponse}
// @Router /v1/users/me/feed [get]
func (s *Server) GetMyFeed(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	posts, err := s.postService.Feed(c.UserContext(), actor, parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Feed fetched successfully", models.ToPostResponses(posts))
}

// GetAllUsers handles GET /api/v1/users
// @Summary List users
// @Description Admin tier only
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Envelope{data=[]models.UserResponse}
// @Failure 403 {object} models.Envelope
// @Router /v1/users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	users, err := s.userService.ListUsers(c.UserContext(), actor, parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Users fetched successfully", models.ToUserResponses(users))
}

// GetUser handles GET /api/v1/users/:id
// @Summary Get user profile by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope{data=models.UserResponse}
// @Failure 404 {object} models.Envelope
// @Router /v1/users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.GetUser(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User profile fetched successfully", models.ToUserResponse(user))
}

// CreateUser handles POST /api/v1/users
func (s *Server) CreateUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req createUserRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Username:          req.Username,
		Email:             req.Email,
		Password:          req.Password,
		ProfilePictureURI: req.ProfilePictureURI,
		Roles:             req.Roles,
		Enabled:           req.Enabled,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "User created successfully", models.ToUserResponse(user))
}

// UpdateUser handles PUT /api/v1/users/:id
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req adminUpdateUserRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.UpdateUser(c.UserContext(), actor, id, service.UpdateUserInput{
		Username:          req.Username,
		Email:             req.Email,
		Password:          req.Password,
		ProfilePictureURI: req.ProfilePictureURI,
		Roles:             req.Roles,
		Enabled:           req.Enabled,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User updated successfully", models.ToUserResponse(user))
}

// DeleteUser handles DELETE /api/v1/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.userService.DeleteUser(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateUserRoles handles PUT /api/v1/users/:id/roles
func (s *Server) UpdateUserRoles(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req roleUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.UpdateUserRoles(c.UserContext(), actor, id, req.Roles)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User roles updated successfully", models.ToUserResponse(user))
}

// UpdateUserStatus handles PATCH /api/v1/users/:id/status
func (s *Server) UpdateUserStatus(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req statusUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.SetUserEnabled(c.UserContext(), actor, id, *req.Enabled)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User status updated successfully", models.ToUserResponse(user))
}

// FollowUser handles POST /api/v1/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.userService.Follow(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User followed successfully", nil)
}

// UnfollowUser handles DELETE /api/v1/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := s.userService.Unfollow(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "User unfollowed successfully", nil)
}

// GetFollowers handles GET /api/v1/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	users, err := s.userService.Followers(c.UserContext(), id, parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Followers fetched successfully", models.ToUserResponses(users))
}

// GetFollowing handles GET /api/v1/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	users, err := s.userService.Following(c.UserContext(), id, parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Following fetched successfully", models.ToUserResponses(users))
}

// GetUserPosts handles GET /api/v1/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	posts, err := s.postService.ListPostsByUser(c.UserContext(), id, parsePagination(c, defaultPageLimit))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Posts fetched successfully", models.ToPostResponses(posts))
}

// GetUserComments handles GET /api/v1/users/:id/comments
func (s *Server) GetUserComments(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	comments, err := s.commentService.ListCommentsByUser(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Comments fetched successfully", models.ToCommentResponses(comments))
}
