// Package presence is the authoritative online/offline state of users.
// A user is online exactly while their marker exists; markers expire on
// their own, so offline detection never depends on a disconnect signal.
package presence

import (
	"context"
	"time"
)

// KeyPrefix namespaces presence markers in the shared store.
const KeyPrefix = "presence:"

// Store tracks per-user presence markers with automatic expiry.
type Store interface {
	// MarkOnline sets or refreshes the user's marker and reports whether the
	// call transitioned the user from offline to online. Idempotent: repeated
	// calls only refresh the TTL.
	MarkOnline(ctx context.Context, userID string, ttl time.Duration) (transitioned bool, err error)

	// MarkOffline removes the marker immediately and reports whether an
	// online-to-offline transition was observed.
	MarkOffline(ctx context.Context, userID string) (transitioned bool, err error)

	// IsOnline reports whether a marker currently exists. No side effects.
	IsOnline(ctx context.Context, userID string) (bool, error)

	// NotifyExpired registers the observer invoked when a marker lapses
	// without an explicit MarkOffline. At most one observer is supported;
	// it is called within the TTL plus a bounded delay of the last refresh.
	NotifyExpired(fn func(userID string))
}

func markerKey(userID string) string { return KeyPrefix + userID }
