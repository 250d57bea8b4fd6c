package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkOnlineTransitionsOnce(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	transitioned, err := store.MarkOnline(ctx, "u1", time.Second)
	require.NoError(t, err)
	require.True(t, transitioned)

	// Repeated refreshes are idempotent: no second transition.
	for i := 0; i < 3; i++ {
		transitioned, err = store.MarkOnline(ctx, "u1", time.Second)
		require.NoError(t, err)
		require.False(t, transitioned)
	}

	online, err := store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	require.True(t, online)
}

func TestMarkOffline(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkOnline(ctx, "u1", time.Second)
	require.NoError(t, err)

	transitioned, err := store.MarkOffline(ctx, "u1")
	require.NoError(t, err)
	require.True(t, transitioned)

	online, err := store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	require.False(t, online)

	// Second removal observes no transition.
	transitioned, err = store.MarkOffline(ctx, "u1")
	require.NoError(t, err)
	require.False(t, transitioned)
}

// Scaled-down version of the heartbeat scenario: interval 100ms, ttl 250ms.
// The user heartbeats twice and then goes silent; the marker must lapse ttl
// after the last refresh, not before, and the expiry observer must fire
// without any explicit disconnect call.
func TestExpiryAfterLastRefresh(t *testing.T) {
	const (
		ttl      = 250 * time.Millisecond
		beat     = 100 * time.Millisecond
		sweep    = 20 * time.Millisecond
		maxDelay = ttl + 10*sweep
	)

	store := NewMemoryStore(sweep)
	defer store.Close()
	ctx := context.Background()

	expired := make(chan string, 1)
	store.NotifyExpired(func(userID string) { expired <- userID })

	start := time.Now()
	_, err := store.MarkOnline(ctx, "u1", ttl)
	require.NoError(t, err)

	// Two heartbeats, then silence.
	time.Sleep(beat)
	_, err = store.MarkOnline(ctx, "u1", ttl)
	require.NoError(t, err)
	time.Sleep(beat)
	_, err = store.MarkOnline(ctx, "u1", ttl)
	require.NoError(t, err)
	lastRefresh := time.Now()

	select {
	case userID := <-expired:
		require.Equal(t, "u1", userID)
		elapsed := time.Since(lastRefresh)
		require.GreaterOrEqual(t, elapsed, ttl-sweep,
			"marker expired before its ttl window")
		require.Less(t, elapsed, maxDelay,
			"expiry notification arrived too late")
		// The marker must have outlived the first ttl window thanks to the
		// refreshes.
		require.GreaterOrEqual(t, time.Since(start), 2*beat+ttl-sweep)
	case <-time.After(2 * maxDelay):
		t.Fatal("expiry notification never arrived")
	}

	online, err := store.IsOnline(ctx, "u1")
	require.NoError(t, err)
	require.False(t, online)
}

func TestReconnectBeforeSweepSuppressesExpiry(t *testing.T) {
	store := NewMemoryStore(50 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	expired := make(chan string, 1)
	store.NotifyExpired(func(userID string) { expired <- userID })

	// Marker lapses logically but the sweeper has not collected it yet.
	_, err := store.MarkOnline(ctx, "u1", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// Reconnecting counts as a fresh transition and cancels the pending expiry.
	transitioned, err := store.MarkOnline(ctx, "u1", time.Second)
	require.NoError(t, err)
	require.True(t, transitioned)

	select {
	case <-expired:
		t.Fatal("expiry fired for a refreshed marker")
	case <-time.After(150 * time.Millisecond):
	}
}
