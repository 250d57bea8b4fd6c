package broadcast

import (
	"context"
	"sync"
)

// Loopback is an in-memory Transport. Several subscribers attached to one
// Loopback behave like replicas sharing a backbone, which is how the
// multi-replica fan-out tests run without Redis. It also serves single-node
// development runs.
type Loopback struct {
	mu   sync.RWMutex
	subs []DeliveryFunc
}

func NewLoopback() *Loopback {
	return &Loopback{}
}

// Attach registers a delivery function without blocking. Used directly by
// tests; Subscribe wraps it with the Transport contract.
func (l *Loopback) Attach(deliver DeliveryFunc) {
	l.mu.Lock()
	l.subs = append(l.subs, deliver)
	l.mu.Unlock()
}

func (l *Loopback) Publish(_ context.Context, room string, env Envelope) error {
	l.mu.RLock()
	subs := make([]DeliveryFunc, len(l.subs))
	copy(subs, l.subs)
	l.mu.RUnlock()

	// Every subscriber receives every publication, the publisher included.
	for _, deliver := range subs {
		deliver(room, env)
	}
	return nil
}

func (l *Loopback) Subscribe(ctx context.Context, deliver DeliveryFunc) error {
	l.Attach(deliver)
	<-ctx.Done()
	return ctx.Err()
}

func (l *Loopback) Close() error {
	return nil
}
