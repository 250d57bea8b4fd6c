package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in tests and single-replica
// development runs. A sweep timer stands in for the backbone's native expiry
// notifications.
type MemoryStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	onExpired func(userID string)

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore starts the sweeper. sweepEvery bounds the extra delay
// between a marker lapsing and the expiry observer firing.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		deadlines: make(map[string]time.Time),
		done:      make(chan struct{}),
	}
	go s.sweep(sweepEvery)
	return s
}

func (s *MemoryStore) MarkOnline(_ context.Context, userID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, exists := s.deadlines[userID]
	// A lapsed marker the sweeper has not collected yet counts as offline.
	transitioned := !exists || !deadline.After(now)
	s.deadlines[userID] = now.Add(ttl)
	return transitioned, nil
}

func (s *MemoryStore) MarkOffline(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.deadlines[userID]
	delete(s.deadlines, userID)
	return exists, nil
}

func (s *MemoryStore) IsOnline(_ context.Context, userID string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, exists := s.deadlines[userID]
	return exists && deadline.After(now), nil
}

func (s *MemoryStore) NotifyExpired(fn func(userID string)) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}

// Close stops the sweeper.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			var expired []string

			s.mu.Lock()
			for userID, deadline := range s.deadlines {
				if !deadline.After(now) {
					delete(s.deadlines, userID)
					expired = append(expired, userID)
				}
			}
			fn := s.onExpired
			s.mu.Unlock()

			if fn == nil {
				continue
			}
			for _, userID := range expired {
				fn(userID)
			}
		}
	}
}
