// Package listener renders domain events back onto the transport layer.
// A listener computes the target room set and publishes through the
// broadcast adapter; it performs no business-state mutation.
package listener

import (
	"context"
	"fmt"
	"log/slog"

	"realtime-ws/internal/broadcast"
	"realtime-ws/internal/bus"
	"realtime-ws/internal/domain"
)

// Chat pushes message and typing events to their chat rooms.
type Chat struct {
	transport broadcast.Publisher
	logger    *slog.Logger
}

func NewChat(transport broadcast.Publisher) *Chat {
	return &Chat{
		transport: transport,
		logger:    slog.Default().With("component", "chat_listener"),
	}
}

// Register subscribes the listener and returns a teardown function.
func (l *Chat) Register(b *bus.Bus) func() {
	unsubs := []func(){
		b.Subscribe(domain.EventMessageCreated, l.onMessageCreated),
		b.Subscribe(domain.EventTypingChanged, l.onTypingChanged),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (l *Chat) onMessageCreated(ctx context.Context, evt domain.Event) error {
	e := evt.(domain.MessageCreated)

	env, err := broadcast.NewEnvelope(domain.PushChatMessage, e.Message)
	if err != nil {
		return fmt.Errorf("envelope chat message: %w", err)
	}
	return l.transport.Publish(ctx, domain.ChatRoom(e.Message.ChatID), env)
}

func (l *Chat) onTypingChanged(ctx context.Context, evt domain.Event) error {
	e := evt.(domain.TypingChanged)

	env, err := broadcast.NewEnvelope(domain.PushChatTyping, domain.TypingPush{
		ChatID:   e.ChatID,
		UserID:   e.UserID,
		IsTyping: e.IsTyping,
	})
	if err != nil {
		return fmt.Errorf("envelope typing change: %w", err)
	}
	return l.transport.Publish(ctx, domain.ChatRoom(e.ChatID), env)
}
