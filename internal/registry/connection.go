package registry

import (
	"sync"

	"github.com/google/uuid"

	"realtime-ws/internal/domain"
)

// Connection is one live transport session. It is owned exclusively by the
// process that accepted it and is never shared across replicas.
//
// Outbound delivery is decoupled from the transport: Send enqueues onto a
// bounded buffer that a per-connection writer goroutine drains, so a slow
// client can never block fan-out to the others.
type Connection struct {
	ID       string
	Identity domain.Identity

	send           chan []byte
	done           chan struct{}
	closeTransport func()

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

// NewConnection wraps a transport session. closeTransport is the revocation
// handle; it is invoked exactly once, on Close.
func NewConnection(identity domain.Identity, sendBuffer int, closeTransport func()) *Connection {
	return &Connection{
		ID:             uuid.NewString(),
		Identity:       identity,
		send:           make(chan []byte, sendBuffer),
		done:           make(chan struct{}),
		closeTransport: closeTransport,
		rooms:          make(map[string]struct{}),
	}
}

// Send enqueues a payload for the writer goroutine. It never blocks; false
// means the connection is closed or its buffer is full (a lagging client),
// and the caller should drop the connection.
func (c *Connection) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Outbox is drained by the connection's writer goroutine.
func (c *Connection) Outbox() <-chan []byte { return c.send }

// Done is closed when the connection is revoked.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Close revokes the connection. Idempotent.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if c.closeTransport != nil {
		c.closeTransport()
	}
}

// Join records local interest in a room. Membership validation happens in
// the service layer before this is called.
func (c *Connection) Join(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

// Leave removes local interest in a room.
func (c *Connection) Leave(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// InRoom reports whether this connection has joined the room.
func (c *Connection) InRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

// Rooms returns a copy of the joined room set.
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
