// Package broadcast makes a room-targeted emission visible to every replica
// through a shared pub/sub backbone. Each replica performs purely local
// delivery on receipt; the publisher is subscribed too, so local and remote
// delivery share one code path.
package broadcast

import (
	"context"
	"encoding/json"
)

// channelPrefix namespaces room channels on the backbone.
const channelPrefix = "room:"

// Envelope wraps one transport emission for cross-instance delivery. It has
// no lifecycle beyond a single publish/consume cycle.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope serializes payload into an envelope.
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Payload: raw}, nil
}

// DeliveryFunc performs local delivery of one received envelope.
type DeliveryFunc func(room string, env Envelope)

// Publisher is the capability listeners depend on.
type Publisher interface {
	Publish(ctx context.Context, room string, env Envelope) error
}

// Transport is a full broadcast adapter: publish plus a subscription loop.
type Transport interface {
	Publisher
	// Subscribe consumes envelopes and hands them to deliver until ctx is
	// canceled. It maintains the backbone connection itself, reconnecting
	// with bounded backoff; while disconnected the replica is deaf.
	Subscribe(ctx context.Context, deliver DeliveryFunc) error
	Close() error
}

func roomChannel(room string) string { return channelPrefix + room }
