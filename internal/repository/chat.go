package repository

import (
	"context"
	"errors"

	"look/internal/models"

	"gorm.io/gorm"
)

// ChatRepository defines persistence operations for chats and their message log.
type ChatRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	FindByPair(ctx context.Context, a, b uint) (*models.Chat, error)
	Create(ctx context.Context, chat *models.Chat) error
	ListForUser(ctx context.Context, userID uint) ([]*models.Chat, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	Messages(ctx context.Context, chatID uint) ([]*models.Message, error)
	MessagesForChats(ctx context.Context, chatIDs []uint) (map[uint][]*models.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		return nil, notFoundOr(err, "Chat", id)
	}
	return &chat, nil
}

// FindByPair matches regardless of which participant is user1. It returns
// (nil, nil) when the pair has no chat yet.
func (r *chatRepository) FindByPair(ctx context.Context, a, b uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).Where("pair_key = ?", models.ChatPairKey(a, b)).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

// Create fills the pair key. A chat that already exists for the pair is
// returned as a DuplicateError.
func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	chat.PairKey = models.ChatPairKey(chat.User1ID, chat.User2ID)
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		if dup, ok := uniqueViolation(err, "pair_key"); ok {
			return dup
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]*models.Chat, error) {
	var chats []*models.Chat
	if err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("id ASC").
		Find(&chats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Messages returns the chat log in timestamp order, ties broken by insert order.
func (r *chatRepository) Messages(ctx context.Context, chatID uint) ([]*models.Message, error) {
	var msgs []*models.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// MessagesForChats loads several logs in one query, keyed by chat id.
func (r *chatRepository) MessagesForChats(ctx context.Context, chatIDs []uint) (map[uint][]*models.Message, error) {
	out := make(map[uint][]*models.Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}
	var msgs []*models.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id IN ?", chatIDs).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, m := range msgs {
		out[m.ChatID] = append(out[m.ChatID], m)
	}
	return out, nil
}
