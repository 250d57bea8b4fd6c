package listener

import (
	"context"
	"fmt"
	"log/slog"

	"realtime-ws/internal/broadcast"
	"realtime-ws/internal/bus"
	"realtime-ws/internal/domain"
	"realtime-ws/internal/membership"
)

// Presence pushes online/offline transitions to the rooms that care: every
// chat the user belongs to, plus the user's own room so their other devices
// stay in sync. The membership lookup happens per event, against the cached
// repository, so the target set is at most one staleness window old.
type Presence struct {
	transport broadcast.Publisher
	members   membership.Repository
	logger    *slog.Logger
}

func NewPresence(transport broadcast.Publisher, members membership.Repository) *Presence {
	return &Presence{
		transport: transport,
		members:   members,
		logger:    slog.Default().With("component", "presence_listener"),
	}
}

// Register subscribes the listener and returns a teardown function.
func (l *Presence) Register(b *bus.Bus) func() {
	unsubs := []func(){
		b.Subscribe(domain.EventUserOnline, l.onOnline),
		b.Subscribe(domain.EventUserOffline, l.onOffline),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (l *Presence) onOnline(ctx context.Context, evt domain.Event) error {
	e := evt.(domain.UserOnline)
	return l.push(ctx, domain.PushPresenceOnline, e.UserID)
}

func (l *Presence) onOffline(ctx context.Context, evt domain.Event) error {
	e := evt.(domain.UserOffline)
	return l.push(ctx, domain.PushPresenceOffline, e.UserID)
}

func (l *Presence) push(ctx context.Context, event, userID string) error {
	env, err := broadcast.NewEnvelope(event, domain.PresenceData{UserID: userID})
	if err != nil {
		return fmt.Errorf("envelope presence change: %w", err)
	}

	chats, err := l.members.MemberChats(ctx, userID)
	if err != nil {
		// Degrade to the user's own room rather than drop the event.
		l.logger.Warn("membership lookup failed, presence push limited to user room",
			"user_id", userID,
			"error", err)
		chats = nil
	}

	rooms := make([]string, 0, len(chats)+1)
	for _, chatID := range chats {
		rooms = append(rooms, domain.ChatRoom(chatID))
	}
	rooms = append(rooms, domain.UserRoom(userID))

	for _, room := range rooms {
		if err := l.transport.Publish(ctx, room, env); err != nil {
			return fmt.Errorf("publish %s to %s: %w", event, room, err)
		}
	}
	return nil
}
