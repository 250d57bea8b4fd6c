package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated principal bound to a connection during the
// handshake. DeviceID is optional; a user may hold several connections with
// different device ids.
type Identity struct {
	UserID        string `json:"user_id"`
	RoleContextID string `json:"role_context_id"`
	DeviceID      string `json:"device_id,omitempty"`
}

// ChatMessage is a message as recorded by the service layer and pushed to
// chat members.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRoom returns the broadcast room name for a chat.
func ChatRoom(chatID string) string { return "chat:" + chatID }

// UserRoom returns the per-user broadcast room name. Every connection joins
// its own user room on registration, so user-targeted pushes reach all of a
// user's devices on every replica.
func UserRoom(userID string) string { return "user:" + userID }
