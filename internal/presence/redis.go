package presence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps presence markers as volatile Redis keys so every replica
// sees the same state. Expiry notifications arrive through Redis keyspace
// events.
type RedisStore struct {
	client *redis.Client
	db     int
	logger *slog.Logger

	mu        sync.RWMutex
	onExpired func(userID string)
}

func NewRedisStore(client *redis.Client, db int) *RedisStore {
	return &RedisStore{
		client: client,
		db:     db,
		logger: slog.Default().With("component", "presence_store"),
	}
}

func (s *RedisStore) MarkOnline(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	// SET ... GET returns the previous value atomically, so two replicas
	// refreshing the same user cannot both observe a transition.
	_, err := s.client.SetArgs(ctx, markerKey(userID), "1", redis.SetArgs{
		TTL: ttl,
		Get: true,
	}).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("refresh presence marker: %w", err)
	}
	return false, nil
}

func (s *RedisStore) MarkOffline(ctx context.Context, userID string) (bool, error) {
	_, err := s.client.GetDel(ctx, markerKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove presence marker: %w", err)
	}
	return true, nil
}

func (s *RedisStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, markerKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check presence marker: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) NotifyExpired(fn func(userID string)) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}

// Listen consumes keyspace expiry notifications until ctx is canceled. Every
// replica listens; the resulting duplicate USER_OFFLINE emissions are
// tolerated downstream (at-least-once delivery).
func (s *RedisStore) Listen(ctx context.Context) error {
	// Keyspace events are off by default. Enabling them here is best-effort;
	// managed Redis deployments often require setting this server-side.
	if err := s.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		s.logger.Warn("could not enable keyspace notifications, relying on server config", "error", err)
	}

	pattern := fmt.Sprintf("__keyevent@%d__:expired", s.db)
	pubsub := s.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	s.logger.Info("listening for presence marker expirations", "pattern", pattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			key := msg.Payload
			if !strings.HasPrefix(key, KeyPrefix) {
				continue
			}
			userID := strings.TrimPrefix(key, KeyPrefix)

			s.mu.RLock()
			fn := s.onExpired
			s.mu.RUnlock()
			if fn != nil {
				fn(userID)
			}
		}
	}
}
