// Package membership is the read-only view of chat membership. The data is
// owned by the persistence tier; this core only fetches it on demand to
// decide fan-out targets and to validate joins and sends.
package membership

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"
)

// Repository answers membership questions. Implementations must be safe for
// concurrent use.
type Repository interface {
	// IsMember reports whether the user belongs to the chat.
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
	// MemberChats returns the ids of every chat the user belongs to.
	MemberChats(ctx context.Context, userID string) ([]string, error)
}

// RedisRepository reads the membership sets the CRUD tier maintains in
// Redis: chat:<id>:members and user:<id>:chats. This core never writes them.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, fmt.Sprintf("chat:%s:members", chatID), userID).Result()
	if err != nil {
		return false, fmt.Errorf("membership lookup for chat %s: %w", chatID, err)
	}
	return ok, nil
}

func (r *RedisRepository) MemberChats(ctx context.Context, userID string) ([]string, error) {
	chats, err := r.client.SMembers(ctx, fmt.Sprintf("user:%s:chats", userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("chat list lookup for user %s: %w", userID, err)
	}
	return chats, nil
}

// Static is a fixed in-memory Repository for tests and local development.
type Static struct {
	members map[string][]string // chatID -> userIDs
	chats   map[string][]string // userID -> chatIDs
}

func NewStatic(members map[string][]string) *Static {
	chats := make(map[string][]string)
	for chatID, users := range members {
		for _, userID := range lo.Uniq(users) {
			chats[userID] = append(chats[userID], chatID)
		}
	}
	return &Static{members: members, chats: chats}
}

func (s *Static) IsMember(_ context.Context, chatID, userID string) (bool, error) {
	return lo.Contains(s.members[chatID], userID), nil
}

func (s *Static) MemberChats(_ context.Context, userID string) ([]string, error) {
	return s.chats[userID], nil
}
