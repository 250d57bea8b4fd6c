package domain

import "time"

// EventKind identifies one member of the closed set of domain events.
// The payload shape of an event is fixed by its kind; new kinds are added
// here and nowhere else.
type EventKind string

const (
	EventUserOnline     EventKind = "user.online"
	EventUserOffline    EventKind = "user.offline"
	EventMessageCreated EventKind = "chat.message.created"
	EventTypingChanged  EventKind = "chat.typing.changed"
)

// Event is a typed, in-process notification describing a business-state
// change. Events are ephemeral: produced, dispatched, discarded.
type Event interface {
	Kind() EventKind
}

// UserOnline is emitted when a presence marker transitions offline -> online.
type UserOnline struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func (UserOnline) Kind() EventKind { return EventUserOnline }

// UserOffline is emitted when a presence marker is removed, either by an
// explicit disconnect or by TTL expiry.
type UserOffline struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func (UserOffline) Kind() EventKind { return EventUserOffline }

// MessageCreated is emitted after a chat message has been durably recorded.
type MessageCreated struct {
	Message ChatMessage `json:"message"`
}

func (MessageCreated) Kind() EventKind { return EventMessageCreated }

// TypingChanged is emitted when a chat member starts or stops typing.
type TypingChanged struct {
	ChatID   string    `json:"chat_id"`
	UserID   string    `json:"user_id"`
	IsTyping bool      `json:"is_typing"`
	At       time.Time `json:"at"`
}

func (TypingChanged) Kind() EventKind { return EventTypingChanged }
