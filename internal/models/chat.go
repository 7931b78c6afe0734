package models

import (
	"fmt"
	"time"
)

// Chat is a two-party conversation. PairKey is the unordered participant pair
// and is unique, so two users share at most one chat.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	User1ID   uint      `gorm:"not null;index" json:"user1_id"`
	User2ID   uint      `gorm:"not null;index" json:"user2_id"`
	PairKey   string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatPairKey returns the order-independent key for two participants.
func ChatPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// HasParticipant reports whether userID is user1 or user2.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Message is one entry of a chat's append-only log.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index:idx_message_chat_time" json:"chat_id"`
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index:idx_message_chat_time" json:"timestamp"`
}
