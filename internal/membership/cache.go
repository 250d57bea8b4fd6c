package membership

import (
	"context"
	"sync"
	"time"
)

// Cached wraps a Repository with a TTL cache. The TTL is the staleness
// bound: after a member is removed upstream, this replica may keep routing
// room traffic to them for at most one TTL.
type Cached struct {
	inner Repository
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	members map[string]memberEntry
	chats   map[string]chatsEntry
}

type memberEntry struct {
	ok      bool
	expires time.Time
}

type chatsEntry struct {
	chats   []string
	expires time.Time
}

func NewCached(inner Repository, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		members: make(map[string]memberEntry),
		chats:   make(map[string]chatsEntry),
	}
}

func (c *Cached) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	key := chatID + "\x00" + userID

	c.mu.Lock()
	entry, hit := c.members[key]
	c.mu.Unlock()
	if hit && entry.expires.After(c.now()) {
		return entry.ok, nil
	}

	ok, err := c.inner.IsMember(ctx, chatID, userID)
	if err != nil {
		// Serve the stale answer rather than fail delivery; the backbone
		// being unreachable degrades freshness, not availability.
		if hit {
			return entry.ok, nil
		}
		return false, err
	}

	c.mu.Lock()
	c.members[key] = memberEntry{ok: ok, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return ok, nil
}

func (c *Cached) MemberChats(ctx context.Context, userID string) ([]string, error) {
	c.mu.Lock()
	entry, hit := c.chats[userID]
	c.mu.Unlock()
	if hit && entry.expires.After(c.now()) {
		return entry.chats, nil
	}

	chats, err := c.inner.MemberChats(ctx, userID)
	if err != nil {
		if hit {
			return entry.chats, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.chats[userID] = chatsEntry{chats: chats, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return chats, nil
}
