package models

import (
	"time"
)

// UnknownUsername is shown when a referenced account no longer exists.
const UnknownUsername = "Unknown User"

// UserResponse is the public view of a User.
type UserResponse struct {
	ID                uint      `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	ProfilePictureURI string    `json:"profilePictureUri"`
	CreatedAt         time.Time `json:"createdAt"`
	Roles             RoleSet   `json:"roles"`
	Enabled           bool      `json:"enabled"`
	FollowersCount    int64     `json:"followersCount"`
	FollowingCount    int64     `json:"followingCount"`
	// AccessToken is set only when a profile change required a new token.
	AccessToken string `json:"accessToken,omitempty"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	UserID      uint    `json:"userId"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Roles       RoleSet `json:"roles"`
}

// PostResponse is the public view of a Post with its computed like count.
type PostResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURI  string    `json:"imageUri,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LikeCount int64     `json:"likeCount"`
}

// CommentResponse is the public view of a Comment.
type CommentResponse struct {
	ID             uint      `json:"id"`
	PostID         uint      `json:"postId"`
	UserID         uint      `json:"userId"`
	AuthorUsername string    `json:"authorUsername"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MessageDTO is a chat message enriched with the sender's username.
type MessageDTO struct {
	SenderID       uint      `json:"senderId"`
	SenderUsername string    `json:"senderUsername"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatResponse is a chat with both participants' usernames and its messages.
type ChatResponse struct {
	ID            uint         `json:"id"`
	User1ID       uint         `json:"user1Id"`
	User1Username string       `json:"user1Username"`
	User2ID       uint         `json:"user2Id"`
	User2Username string       `json:"user2Username"`
	Messages      []MessageDTO `json:"messages"`
	LastMessage   *MessageDTO  `json:"lastMessage"`
}

// ToUserResponse maps a User to its wire form.
func ToUserResponse(u *User) UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = RoleSet{}
	}
	return UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		ProfilePictureURI: u.ProfilePictureURI,
		CreatedAt:         u.CreatedAt,
		Roles:             roles,
		Enabled:           u.Enabled,
		FollowersCount:    u.FollowersCount,
		FollowingCount:    u.FollowingCount,
	}
}

// ToUserResponses maps a slice of users.
func ToUserResponses(users []*User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

// ToPostResponse maps a Post loaded with its computed columns.
func ToPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  p.Username,
		Title:     p.Title,
		Content:   p.Content,
		ImageURI:  p.ImageURI,
		CreatedAt: p.CreatedAt,
		LikeCount: p.LikeCount,
	}
}

// ToPostResponses maps a slice of posts.
func ToPostResponses(posts []*Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, ToPostResponse(p))
	}
	return out
}

// ToCommentResponse maps a Comment loaded with its author's username.
func ToCommentResponse(c *Comment) CommentResponse {
	return CommentResponse{
		ID:             c.ID,
		PostID:         c.PostID,
		UserID:         c.UserID,
		AuthorUsername: c.Username,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt,
	}
}

// ToCommentResponses maps a slice of comments.
func ToCommentResponses(comments []*Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, ToCommentResponse(c))
	}
	return out
}

// ToMessageDTO maps a Message; usernames resolves sender ids.
func ToMessageDTO(m *Message, usernames map[uint]string) MessageDTO {
	name, ok := usernames[m.SenderID]
	if !ok {
		name = UnknownUsername
	}
	return MessageDTO{
		SenderID:       m.SenderID,
		SenderUsername: name,
		Message:        m.Content,
		Timestamp:      m.Timestamp,
	}
}
