package domain

import "encoding/json"

// Inbound frame types accepted on the WebSocket.
const (
	FramePing        = "ping"
	FrameRoomJoin    = "room-join"
	FrameRoomLeave   = "room-leave"
	FrameSendMessage = "send-message"
	FrameTyping      = "typing"
)

// Outbound frame types pushed to clients.
const (
	FrameHello          = "hello"
	FramePong           = "pong"
	FrameRoomJoined     = "room-joined"
	FrameRoomLeft       = "room-left"
	FrameMessageQueued  = "message-queued"
	FrameError          = "error"
	PushPresenceOnline  = "presence:online"
	PushPresenceOffline = "presence:offline"
	PushChatMessage     = "chat:message"
	PushChatTyping      = "chat:typing"
)

// ClientFrame is the envelope for every inbound client action.
type ClientFrame struct {
	Type   string          `json:"type"`
	ChatID string          `json:"chat_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ServerFrame is the envelope for every outbound push.
type ServerFrame struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// SendMessageData is the payload of a send-message frame.
type SendMessageData struct {
	Content string `json:"content"`
}

// TypingData is the payload of a typing frame.
type TypingData struct {
	IsTyping bool `json:"is_typing"`
}

// HelloData is pushed once after a successful handshake. PingIntervalSec
// tells the client how often to send ping frames; it is always at most half
// of the presence marker TTL.
type HelloData struct {
	UserID          string `json:"user_id"`
	ConnectionID    string `json:"connection_id"`
	PingIntervalSec int    `json:"ping_interval_sec"`
}

// PresenceData is the payload of presence:online / presence:offline pushes.
type PresenceData struct {
	UserID string `json:"user_id"`
}

// TypingPush is the payload of chat:typing pushes.
type TypingPush struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}
