package kafka

import (
	"context"

	"realtime-ws/internal/domain"
)

// ChatMessagesTopic is the feed the persistence tier consumes to store chat
// history.
const ChatMessagesTopic = "chat-messages"

// MessageRecorder satisfies the service layer's recording capability by
// handing each message to the persistence tier's Kafka feed. The write is
// synchronous and acknowledged, so by the time the service emits its domain
// event the message has durably left this process.
type MessageRecorder struct {
	producer *Producer
}

func NewMessageRecorder(producer *Producer) *MessageRecorder {
	return &MessageRecorder{producer: producer}
}

func (r *MessageRecorder) Record(ctx context.Context, msg domain.ChatMessage) error {
	// Keyed by chat so one chat's history stays ordered in its partition.
	return r.producer.Write(ctx, ChatMessagesTopic, msg.ChatID, msg)
}
