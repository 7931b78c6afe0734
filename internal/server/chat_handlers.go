package server

import (
	"look/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FindOrCreateChat handles POST /api/v1/chats/findOrCreate
// @Summary Find or create a chat
// @Description Returns the chat between the caller and otherUserId, creating it when absent
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body chatCreateRequest true "Other participant"
// @Success 200 {object} models.Envelope{data=models.ChatResponse}
// @Failure 400 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/chats/findOrCreate [post]
func (s *Server) FindOrCreateChat(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req chatCreateRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	chat, err := s.chatService.GetOrCreateChat(c.UserContext(), actor, req.OtherUserID)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Chat retrieved or created successfully", chat)
}

// GetMyChats handles GET /api/v1/chats
// @Summary List my chats
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=[]models.ChatResponse}
// @Router /v1/chats [get]
func (s *Server) GetMyChats(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}

	chats, err := s.chatService.GetMyChats(c.UserContext(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Chats fetched successfully", chats)
}

// SendMessage handles POST /api/v1/chats/:id/messages
// @Summary Send a message
// @Description Appends a message and notifies both participants over the websocket
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body messageRequest true "Message"
// @Success 201 {object} models.Envelope{data=models.MessageDTO}
// @Failure 403 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /v1/chats/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	chatID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req messageRequest
	if err := bindBody(c, &req); err != nil {
		return respondError(c, err)
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), actor, chatID, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, "Message sent successfully", msg)
}

// GetChatMessages handles GET /api/v1/chats/:id/messages
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	actor, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	chatID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	messages, err := s.chatService.GetChatMessages(c.UserContext(), actor, chatID)
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, "Messages fetched successfully", messages)
}
