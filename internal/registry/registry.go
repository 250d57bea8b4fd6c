// Package registry is the per-process map from authenticated identity to
// live connections. It is rebuilt from scratch on restart and never
// serialized or shared across replicas.
package registry

import (
	"hash/fnv"
	"sync"
)

// shardCount spreads identities over independent locks so unrelated users'
// traffic does not serialize on a single mutex.
const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	conns map[string]map[*Connection]struct{} // userID -> connection set
}

// Registry tracks the connections owned by this process. A single identity
// may hold multiple simultaneous connections (multi-device); each is tracked
// independently.
type Registry struct {
	shards [shardCount]*shard
}

func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{conns: make(map[string]map[*Connection]struct{})}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register associates the connection with its identity.
func (r *Registry) Register(c *Connection) {
	s := r.shardFor(c.Identity.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.conns[c.Identity.UserID]
	if !ok {
		set = make(map[*Connection]struct{})
		s.conns[c.Identity.UserID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes one connection and reports whether it was the last one
// held locally by its identity. Idempotent: removing an unknown connection
// reports false.
func (r *Registry) Unregister(c *Connection) (wasLast bool) {
	s := r.shardFor(c.Identity.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.conns[c.Identity.UserID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(s.conns, c.Identity.UserID)
		return true
	}
	return false
}

// ConnectionsFor returns the identity's local connections.
func (r *Registry) ConnectionsFor(userID string) []*Connection {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*Connection, 0, len(s.conns[userID]))
	for c := range s.conns[userID] {
		conns = append(conns, c)
	}
	return conns
}

// InRoom returns every local connection that has joined the room. The
// membership check happens here, at delivery time, so no replica needs
// global knowledge of who is connected where.
func (r *Registry) InRoom(room string) []*Connection {
	var conns []*Connection
	for _, s := range r.shards {
		s.mu.RLock()
		for _, set := range s.conns {
			for c := range set {
				if c.InRoom(room) {
					conns = append(conns, c)
				}
			}
		}
		s.mu.RUnlock()
	}
	return conns
}

// Counts returns the number of distinct identities and total connections,
// for the health endpoint.
func (r *Registry) Counts() (users, connections int) {
	for _, s := range r.shards {
		s.mu.RLock()
		users += len(s.conns)
		for _, set := range s.conns {
			connections += len(set)
		}
		s.mu.RUnlock()
	}
	return users, connections
}
