package listener

import (
	"context"
	"log/slog"
	"time"

	"realtime-ws/internal/bus"
	"realtime-ws/internal/domain"
)

// PresenceEventsTopic receives every presence transition for downstream
// consumers (activity feeds, mail digests, analytics).
const PresenceEventsTopic = "presence-events"

// EventWriter hands an event to the durable export feed.
type EventWriter interface {
	Write(ctx context.Context, topic, key string, value interface{}) error
}

// Export copies presence transitions onto the Kafka export feed. Message
// bodies already reach Kafka through the recorder on the mutation path, so
// only presence events are exported here. Export failures are logged and
// dropped; the feed is best-effort and never blocks realtime delivery.
type Export struct {
	writer EventWriter
	logger *slog.Logger
}

func NewExport(writer EventWriter) *Export {
	return &Export{
		writer: writer,
		logger: slog.Default().With("component", "export_listener"),
	}
}

// Register subscribes the listener and returns a teardown function.
func (l *Export) Register(b *bus.Bus) func() {
	unsubs := []func(){
		b.Subscribe(domain.EventUserOnline, l.onPresence),
		b.Subscribe(domain.EventUserOffline, l.onPresence),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

type presenceExport struct {
	Kind   domain.EventKind `json:"kind"`
	UserID string           `json:"user_id"`
	At     time.Time        `json:"at"`
}

func (l *Export) onPresence(ctx context.Context, evt domain.Event) error {
	var record presenceExport
	switch e := evt.(type) {
	case domain.UserOnline:
		record = presenceExport{Kind: e.Kind(), UserID: e.UserID, At: e.At}
	case domain.UserOffline:
		record = presenceExport{Kind: e.Kind(), UserID: e.UserID, At: e.At}
	default:
		return nil
	}
	if err := l.writer.Write(ctx, PresenceEventsTopic, record.UserID, record); err != nil {
		l.logger.Warn("presence export failed", "user_id", record.UserID, "error", err)
	}
	return nil
}
