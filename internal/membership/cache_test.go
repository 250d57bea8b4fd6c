package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	inner   Repository
	calls   int
	failing bool
}

func (r *countingRepo) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	r.calls++
	if r.failing {
		return false, errors.New("backbone unavailable")
	}
	return r.inner.IsMember(ctx, chatID, userID)
}

func (r *countingRepo) MemberChats(ctx context.Context, userID string) ([]string, error) {
	r.calls++
	if r.failing {
		return nil, errors.New("backbone unavailable")
	}
	return r.inner.MemberChats(ctx, userID)
}

func TestStaticRepository(t *testing.T) {
	repo := NewStatic(map[string][]string{
		"42": {"u1", "u2"},
		"99": {"u2"},
	})
	ctx := context.Background()

	ok, err := repo.IsMember(ctx, "42", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IsMember(ctx, "99", "u1")
	require.NoError(t, err)
	require.False(t, ok)

	chats, err := repo.MemberChats(ctx, "u2")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"42", "99"}, chats)
}

func TestCachedServesWithinTTL(t *testing.T) {
	inner := &countingRepo{inner: NewStatic(map[string][]string{"42": {"u1"}})}
	cached := NewCached(inner, time.Minute)

	now := time.Now()
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := cached.IsMember(ctx, "42", "u1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 1, inner.calls, "expected a single upstream lookup within the TTL")
}

func TestCachedStalenessIsBounded(t *testing.T) {
	inner := &countingRepo{inner: NewStatic(map[string][]string{"42": {"u1"}})}
	cached := NewCached(inner, time.Minute)

	now := time.Now()
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := cached.IsMember(ctx, "42", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	// Membership is revoked upstream; within the TTL the stale answer is
	// still served.
	inner.inner = NewStatic(map[string][]string{"42": {}})
	ok, err = cached.IsMember(ctx, "42", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	// Past the TTL the revocation becomes visible.
	now = now.Add(time.Minute + time.Second)
	ok, err = cached.IsMember(ctx, "42", "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCachedServesStaleOnUpstreamFailure(t *testing.T) {
	inner := &countingRepo{inner: NewStatic(map[string][]string{"42": {"u1"}})}
	cached := NewCached(inner, time.Minute)

	now := time.Now()
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	chats, err := cached.MemberChats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"42"}, chats)

	inner.failing = true
	now = now.Add(2 * time.Minute)

	chats, err = cached.MemberChats(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"42"}, chats)

	// A cold key still surfaces the failure.
	_, err = cached.MemberChats(ctx, "u2")
	require.Error(t, err)
}
