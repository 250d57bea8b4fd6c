package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"realtime-ws/internal/domain"
	"realtime-ws/internal/membership"
)

// Chat validates chat actions against membership, records messages, and
// emits the matching domain events.
type Chat struct {
	members  membership.Repository
	recorder MessageRecorder
	events   Publisher
	logger   *slog.Logger
}

func NewChat(members membership.Repository, recorder MessageRecorder, events Publisher) *Chat {
	return &Chat{
		members:  members,
		recorder: recorder,
		events:   events,
		logger:   slog.Default().With("component", "chat_service"),
	}
}

// Join verifies that the identity may enter the chat. The caller performs
// the actual room subscription only after Join succeeds.
func (s *Chat) Join(ctx context.Context, identity domain.Identity, chatID string) error {
	ok, err := s.members.IsMember(ctx, chatID, identity.UserID)
	if err != nil {
		return fmt.Errorf("validate join: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}
	return nil
}

// SendMessage records a message and, once the write has committed, emits a
// single MessageCreated event. A rejected or failed send emits nothing, so a
// broadcast can never precede (or outlive) its state mutation.
func (s *Chat) SendMessage(ctx context.Context, identity domain.Identity, chatID, content string) (domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return domain.ChatMessage{}, ErrEmptyContent
	}

	ok, err := s.members.IsMember(ctx, chatID, identity.UserID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("validate sender: %w", err)
	}
	if !ok {
		return domain.ChatMessage{}, ErrNotAMember
	}

	msg := domain.ChatMessage{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  identity.UserID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, msg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("record message: %w", err)
	}

	s.events.Emit(ctx, domain.MessageCreated{Message: msg})
	return msg, nil
}

// SetTyping emits a TypingChanged event for a chat member. Typing state is
// ephemeral; there is no mutation to commit.
func (s *Chat) SetTyping(ctx context.Context, identity domain.Identity, chatID string, isTyping bool) error {
	ok, err := s.members.IsMember(ctx, chatID, identity.UserID)
	if err != nil {
		return fmt.Errorf("validate typing: %w", err)
	}
	if !ok {
		return ErrNotAMember
	}

	s.events.Emit(ctx, domain.TypingChanged{
		ChatID:   chatID,
		UserID:   identity.UserID,
		IsTyping: isTyping,
		At:       time.Now().UTC(),
	})
	return nil
}
