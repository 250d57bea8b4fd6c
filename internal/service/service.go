// Package service holds the business-state mutations of the realtime core.
// A service method mutates state first and, only on success, emits exactly
// one domain event; it never touches the transport layer.
package service

import (
	"context"
	"errors"

	"realtime-ws/internal/domain"
)

var (
	// ErrNotAMember rejects actions on chats the identity does not belong to.
	ErrNotAMember = errors.New("not a member of this chat")
	// ErrEmptyContent rejects blank messages.
	ErrEmptyContent = errors.New("message content is empty")
)

// Publisher is the event-emission capability injected into services.
type Publisher interface {
	Emit(ctx context.Context, evt domain.Event)
}

// MessageRecorder persists a created message. The write must have committed
// before the corresponding event is emitted.
type MessageRecorder interface {
	Record(ctx context.Context, msg domain.ChatMessage) error
}
