package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTransport fans envelopes out over Redis pub/sub. Delivery is
// at-least-once and best-effort ordered per publisher; a replica that loses
// its subscription misses whatever was published while it was away.
type RedisTransport struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{
		client: client,
		logger: slog.Default().With("component", "broadcast"),
	}
}

func (t *RedisTransport) Publish(ctx context.Context, room string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := t.client.Publish(ctx, roomChannel(room), body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", roomChannel(room), err)
	}
	return nil
}

// Subscribe pattern-subscribes to every room channel and delivers received
// envelopes locally. The room set of this replica's connections changes all
// the time, so membership is checked at delivery, not at subscription.
func (t *RedisTransport) Subscribe(ctx context.Context, deliver DeliveryFunc) error {
	bo := newBackoff(backoffBase, backoffMax)

	for {
		err := t.consume(ctx, deliver, bo.Reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.Next()
		t.logger.Warn("broadcast subscription lost, reconnecting",
			"error", err,
			"retry_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (t *RedisTransport) consume(ctx context.Context, deliver DeliveryFunc, onSubscribed func()) error {
	pubsub := t.client.PSubscribe(ctx, roomChannel("*"))
	defer pubsub.Close()

	// Wait for the subscription confirmation before declaring ourselves
	// reachable again.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	onSubscribed()
	t.logger.Info("subscribed to broadcast channels", "pattern", roomChannel("*"))

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}

		room := strings.TrimPrefix(msg.Channel, channelPrefix)
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			t.logger.Warn("dropping malformed envelope", "channel", msg.Channel, "error", err)
			continue
		}
		t.deliverSafe(deliver, room, env)
	}
}

// deliverSafe isolates local delivery so a panic in one replica's handlers
// cannot kill the subscription loop.
func (t *RedisTransport) deliverSafe(deliver DeliveryFunc, room string, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("recovered from panic during local delivery",
				"room", room,
				"event", env.Event,
				"panic", r)
		}
	}()
	deliver(room, env)
}

func (t *RedisTransport) Close() error {
	return nil
}
