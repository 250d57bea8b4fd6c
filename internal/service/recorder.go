package service

import (
	"context"
	"sync"

	"realtime-ws/internal/domain"
)

// MemoryRecorder keeps the most recent messages in memory. It backs tests
// and single-node development runs; production wires the Kafka recorder so
// the persistence tier receives every message.
type MemoryRecorder struct {
	mu    sync.Mutex
	msgs  []domain.ChatMessage
	limit int
}

func NewMemoryRecorder(limit int) *MemoryRecorder {
	return &MemoryRecorder{limit: limit}
}

func (r *MemoryRecorder) Record(_ context.Context, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	if len(r.msgs) > r.limit {
		r.msgs = r.msgs[len(r.msgs)-r.limit:]
	}
	return nil
}

// Recent returns the recorded messages for a chat, oldest first.
func (r *MemoryRecorder) Recent(chatID string) []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range r.msgs {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}
