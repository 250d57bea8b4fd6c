package redis

import (
	"github.com/go-redis/redis/v8"
)

// NewClient builds the shared Redis client used by the presence store, the
// membership reads, and the broadcast adapter.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
