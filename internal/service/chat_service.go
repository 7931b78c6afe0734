package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"look/internal/auth"
	"look/internal/middleware"
	"look/internal/models"
	"look/internal/observability"
	"look/internal/repository"
)

// EventChatMessage is the realtime event type for a new chat message.
const EventChatMessage = "chat_message"

// UserPublisher delivers a payload to every connection of a user.
type UserPublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// ChatEvent is the realtime payload published on each send.
type ChatEvent struct {
	Type    string            `json:"type"`
	ChatID  uint              `json:"chatId"`
	Message models.MessageDTO `json:"message"`
}

// ChatService provides two-party chat business logic.
type ChatService struct {
	chats     repository.ChatRepository
	users     repository.UserRepository
	publisher UserPublisher
	now       func() time.Time
}

// NewChatService returns a new ChatService. publisher may be nil.
func NewChatService(chats repository.ChatRepository, users repository.UserRepository, publisher UserPublisher) *ChatService {
	return &ChatService{
		chats:     chats,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// GetOrCreateChat returns the chat between the caller and otherID, creating
// it on first contact.
func (s *ChatService) GetOrCreateChat(ctx context.Context, actor auth.Identity, otherID uint) (resp *models.ChatResponse, err error) {
	ctx, span := startSpan(ctx, "ChatService", "GetOrCreateChat", &actor)
	defer func() { observability.EndSpan(span, err) }()

	if otherID == actor.UserID {
		return nil, models.NewValidationError("Cannot create a chat with yourself")
	}
	ok, err := s.users.Exists(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Other user", otherID)
	}

	chat, err := s.chats.FindByPair(ctx, actor.UserID, otherID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		chat = &models.Chat{User1ID: actor.UserID, User2ID: otherID}
		if err := s.chats.Create(ctx, chat); err != nil {
			if _, dup := repository.DuplicateField(err); !dup {
				return nil, err
			}
			// lost a create race; the winner's chat is the one to return
			chat, err = s.chats.FindByPair(ctx, actor.UserID, otherID)
			if err != nil {
				return nil, err
			}
			if chat == nil {
				return nil, models.NewNotFoundMessage("Chat not found for this pair")
			}
		}
	}

	msgs, err := s.chats.Messages(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	out, err := s.buildResponses(ctx, []*models.Chat{chat}, map[uint][]*models.Message{chat.ID: msgs})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// SendMessage appends text to the chat log and notifies both participants.
func (s *ChatService) SendMessage(ctx context.Context, actor auth.Identity, chatID uint, text string) (dto *models.MessageDTO, err error) {
	ctx, span := startSpan(ctx, "ChatService", "SendMessage", &actor)
	defer func() { observability.EndSpan(span, err) }()

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actor.UserID) {
		return nil, models.NewForbiddenError("User not authorized to send messages in this chat")
	}

	msg := &models.Message{
		ChatID:    chat.ID,
		SenderID:  actor.UserID,
		Content:   text,
		Timestamp: s.now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	observability.ChatMessages.Inc()

	out := models.ToMessageDTO(msg, map[uint]string{actor.UserID: actor.Username})
	s.publish(ctx, chat, out)
	return &out, nil
}

func (s *ChatService) publish(ctx context.Context, chat *models.Chat, msg models.MessageDTO) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ChatEvent{Type: EventChatMessage, ChatID: chat.ID, Message: msg})
	if err != nil {
		return
	}
	for _, uid := range []uint{chat.User1ID, chat.User2ID} {
		if err := s.publisher.PublishUser(ctx, uid, string(payload)); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish chat message",
				slog.Uint64("chat_id", uint64(chat.ID)),
				slog.Uint64("recipient_id", uint64(uid)),
				slog.String("error", err.Error()))
		}
	}
}

// GetMyChats lists the caller's chats, most recent activity first. Chats
// with no messages sort last.
func (s *ChatService) GetMyChats(ctx context.Context, actor auth.Identity) (result []models.ChatResponse, err error) {
	ctx, span := startSpan(ctx, "ChatService", "GetMyChats", &actor)
	defer func() { observability.EndSpan(span, err) }()

	chats, err := s.chats.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	logs, err := s.chats.MessagesForChats(ctx, ids)
	if err != nil {
		return nil, err
	}
	out, err := s.buildResponses(ctx, chats, logs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out, nil
}

func lastActivity(c models.ChatResponse) time.Time {
	if c.LastMessage == nil {
		return time.Unix(0, 0)
	}
	return c.LastMessage.Timestamp
}

// GetChatMessages returns the chat log oldest first.
func (s *ChatService) GetChatMessages(ctx context.Context, actor auth.Identity, chatID uint) (result []models.MessageDTO, err error) {
	ctx, span := startSpan(ctx, "ChatService", "GetChatMessages", &actor)
	defer func() { observability.EndSpan(span, err) }()

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(actor.UserID) {
		return nil, models.NewForbiddenError("User not authorized to view messages in this chat")
	}
	msgs, err := s.chats.Messages(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	names, err := s.users.Usernames(ctx, chat.User1ID, chat.User2ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.ToMessageDTO(m, names))
	}
	return out, nil
}

// buildResponses enriches chats with participant usernames and their logs.
func (s *ChatService) buildResponses(ctx context.Context, chats []*models.Chat, logs map[uint][]*models.Message) ([]models.ChatResponse, error) {
	ids := make([]uint, 0, len(chats)*2)
	for _, c := range chats {
		ids = append(ids, c.User1ID, c.User2ID)
	}
	names, err := s.users.Usernames(ctx, ids...)
	if err != nil {
		return nil, err
	}
	usernameOf := func(id uint) string {
		if n, ok := names[id]; ok {
			return n
		}
		return models.UnknownUsername
	}

	out := make([]models.ChatResponse, 0, len(chats))
	for _, c := range chats {
		msgs := make([]models.MessageDTO, 0, len(logs[c.ID]))
		for _, m := range logs[c.ID] {
			msgs = append(msgs, models.ToMessageDTO(m, names))
		}
		resp := models.ChatResponse{
			ID:            c.ID,
			User1ID:       c.User1ID,
			User1Username: usernameOf(c.User1ID),
			User2ID:       c.User2ID,
			User2Username: usernameOf(c.User2ID),
			Messages:      msgs,
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			resp.LastMessage = &last
		}
		out = append(out, resp)
	}
	return out, nil
}
