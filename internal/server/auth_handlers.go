package server

import (
	"look/internal/models"
	"look/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register user
// @Description Registers a new user with the default ROLE_USER role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration request"
// @Success 201 {object} models.Envelope{data=models.UserResponse}
// @Failure 400 {object} models.Envelope
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return models.Respond(c, fiber.StatusCreated, "User registered successfully", models.ToUserResponse(user))
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticates a user and returns a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} models.Envelope{data=models.AuthResponse}
// @Failure 400 {object} models.Envelope
// @Failure 401 {object} models.Envelope
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	resp, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return models.Respond(c, fiber.StatusOK, "User logged in successfully", resp)
}
