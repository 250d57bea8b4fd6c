package listener

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"realtime-ws/internal/broadcast"
	"realtime-ws/internal/bus"
	"realtime-ws/internal/domain"
	"realtime-ws/internal/membership"
)

type publishCall struct {
	room string
	env  broadcast.Envelope
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
}

func (p *fakePublisher) Publish(_ context.Context, room string, env broadcast.Envelope) error {
	p.mu.Lock()
	p.calls = append(p.calls, publishCall{room: room, env: env})
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) all() []publishCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishCall(nil), p.calls...)
}

func TestChatListenerPublishesMessageToChatRoom(t *testing.T) {
	publisher := &fakePublisher{}
	b := bus.New()
	NewChat(publisher).Register(b)

	msg := domain.ChatMessage{
		ID:        uuid.New(),
		ChatID:    "42",
		SenderID:  "alice",
		Content:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	b.Emit(context.Background(), domain.MessageCreated{Message: msg})

	calls := publisher.all()
	require.Len(t, calls, 1)
	require.Equal(t, domain.ChatRoom("42"), calls[0].room)
	require.Equal(t, domain.PushChatMessage, calls[0].env.Event)

	var got domain.ChatMessage
	require.NoError(t, json.Unmarshal(calls[0].env.Payload, &got))
	require.Equal(t, msg.ID, got.ID)
	require.Equal(t, "hello", got.Content)
}

func TestChatListenerPublishesTyping(t *testing.T) {
	publisher := &fakePublisher{}
	b := bus.New()
	NewChat(publisher).Register(b)

	b.Emit(context.Background(), domain.TypingChanged{
		ChatID: "42", UserID: "bob", IsTyping: true, At: time.Now(),
	})

	calls := publisher.all()
	require.Len(t, calls, 1)
	require.Equal(t, domain.PushChatTyping, calls[0].env.Event)
	require.JSONEq(t, `{"chat_id":"42","user_id":"bob","is_typing":true}`, string(calls[0].env.Payload))
}

func TestPresenceListenerTargetsUserChats(t *testing.T) {
	publisher := &fakePublisher{}
	members := membership.NewStatic(map[string][]string{
		"42": {"alice", "bob"},
		"99": {"alice"},
	})
	b := bus.New()
	NewPresence(publisher, members).Register(b)

	b.Emit(context.Background(), domain.UserOnline{UserID: "alice", At: time.Now()})

	rooms := []string{}
	for _, call := range publisher.all() {
		require.Equal(t, domain.PushPresenceOnline, call.env.Event)
		rooms = append(rooms, call.room)
	}
	require.ElementsMatch(t,
		[]string{domain.ChatRoom("42"), domain.ChatRoom("99"), domain.UserRoom("alice")},
		rooms)
}

func TestPresenceListenerOfflinePush(t *testing.T) {
	publisher := &fakePublisher{}
	members := membership.NewStatic(map[string][]string{"42": {"alice"}})
	b := bus.New()
	NewPresence(publisher, members).Register(b)

	b.Emit(context.Background(), domain.UserOffline{UserID: "alice", At: time.Now()})

	calls := publisher.all()
	require.Len(t, calls, 2)
	for _, call := range calls {
		require.Equal(t, domain.PushPresenceOffline, call.env.Event)
		require.JSONEq(t, `{"user_id":"alice"}`, string(call.env.Payload))
	}
}

type fakeWriter struct {
	mu     sync.Mutex
	topics []string
	keys   []string
	values []interface{}
}

func (w *fakeWriter) Write(_ context.Context, topic, key string, value interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.topics = append(w.topics, topic)
	w.keys = append(w.keys, key)
	w.values = append(w.values, value)
	return nil
}

func TestExportListenerWritesPresenceTransitions(t *testing.T) {
	writer := &fakeWriter{}
	b := bus.New()
	NewExport(writer).Register(b)

	at := time.Now().UTC()
	b.Emit(context.Background(), domain.UserOnline{UserID: "alice", At: at})
	b.Emit(context.Background(), domain.UserOffline{UserID: "alice", At: at})

	require.Equal(t, []string{PresenceEventsTopic, PresenceEventsTopic}, writer.topics)
	require.Equal(t, []string{"alice", "alice"}, writer.keys)

	first := writer.values[0].(presenceExport)
	require.Equal(t, domain.EventUserOnline, first.Kind)
	require.Equal(t, at, first.At)
}

func TestListenerUnregister(t *testing.T) {
	publisher := &fakePublisher{}
	b := bus.New()
	teardown := NewChat(publisher).Register(b)
	teardown()

	b.Emit(context.Background(), domain.MessageCreated{Message: domain.ChatMessage{ChatID: "42"}})
	require.Empty(t, publisher.all())
}
