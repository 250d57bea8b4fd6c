package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"realtime-ws/internal/domain"
	"realtime-ws/internal/presence"
)

// Presence drives the heartbeat protocol against the presence store and
// turns marker transitions into domain events. It registers itself as the
// store's expiry observer, so USER_OFFLINE is emitted even when no replica
// ever saw a disconnect.
type Presence struct {
	store  presence.Store
	events Publisher
	ttl    time.Duration
	logger *slog.Logger
}

func NewPresence(store presence.Store, events Publisher, ttl time.Duration) *Presence {
	s := &Presence{
		store:  store,
		events: events,
		ttl:    ttl,
		logger: slog.Default().With("component", "presence_service"),
	}
	store.NotifyExpired(s.markerExpired)
	return s
}

// TTL is the marker lifetime granted per refresh.
func (s *Presence) TTL() time.Duration { return s.ttl }

// Connect marks the user online on connection open.
func (s *Presence) Connect(ctx context.Context, userID string) error {
	return s.refresh(ctx, userID)
}

// Heartbeat refreshes the marker on a client ping. It emits nothing unless
// the marker had lapsed, in which case the refresh is the transition call.
func (s *Presence) Heartbeat(ctx context.Context, userID string) error {
	return s.refresh(ctx, userID)
}

func (s *Presence) refresh(ctx context.Context, userID string) error {
	transitioned, err := s.store.MarkOnline(ctx, userID, s.ttl)
	if err != nil {
		return fmt.Errorf("mark online: %w", err)
	}
	if transitioned {
		s.events.Emit(ctx, domain.UserOnline{UserID: userID, At: time.Now().UTC()})
	}
	return nil
}

// Disconnect removes the marker on a graceful close. Ungraceful losses skip
// this entirely and are covered by marker expiry.
func (s *Presence) Disconnect(ctx context.Context, userID string) error {
	transitioned, err := s.store.MarkOffline(ctx, userID)
	if err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	if transitioned {
		s.events.Emit(ctx, domain.UserOffline{UserID: userID, At: time.Now().UTC()})
	}
	return nil
}

// IsOnline answers presence queries.
func (s *Presence) IsOnline(ctx context.Context, userID string) (bool, error) {
	return s.store.IsOnline(ctx, userID)
}

// markerExpired runs on the store's expiry notification path; the marker is
// already gone, so the offline transition has been observed by definition.
func (s *Presence) markerExpired(userID string) {
	s.logger.Info("presence marker expired", "user_id", userID)
	s.events.Emit(context.Background(), domain.UserOffline{UserID: userID, At: time.Now().UTC()})
}
