package hub

import "sync"

// Writer is the push side of a live connection.
type Writer interface {
	Write(message []byte) error
	Close() error
}

// Connection binds an authenticated user to a live push channel for the
// lifetime of that channel.
type Connection struct {
	UserID    string
	Writer    Writer
	CreatedAt int64
}

// Registry is the presence directory: it maps a user id to its single active
// connection. A user is reachable for push if and only if they have an entry
// here. Mutations never issue I/O while holding the lock.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*Connection
	onEvict func(userID string)
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register installs conn as the active connection for its user. A previous
// connection for the same user is superseded and closed, so a stale session
// cannot keep holding the socket after a second login.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	prev := r.conns[conn.UserID]
	r.conns[conn.UserID] = conn
	r.mu.Unlock()

	if prev != nil && prev != conn {
		_ = prev.Writer.Close()
	}
}

// Unregister removes the entry for conn's user only if it still references
// conn, and reports whether it did. A teardown racing with a newer login for
// the same user must not evict the replacement, so losing that race is a
// silent no-op. Safe to call more than once for the same connection.
func (r *Registry) Unregister(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[conn.UserID] != conn {
		return false
	}
	delete(r.conns, conn.UserID)
	return true
}

// NotifyEvictions installs fn to run whenever a dead connection is evicted by
// a failed push or broadcast. The serve goroutine only announces presence for
// entries it removes itself, so eviction needs its own signal or clients keep
// a stale online set. Call once, at wiring time.
func (r *Registry) NotifyEvictions(fn func(userID string)) {
	r.mu.Lock()
	r.onEvict = fn
	r.mu.Unlock()
}

// evict closes and unregisters a connection whose write failed, firing the
// eviction callback outside the lock. Losing the unregister race to a newer
// login means the user never went offline, so no callback fires.
func (r *Registry) evict(conn *Connection) {
	_ = conn.Writer.Close()
	if !r.Unregister(conn) {
		return
	}

	r.mu.RLock()
	fn := r.onEvict
	r.mu.RUnlock()
	if fn != nil {
		fn(conn.UserID)
	}
}

// Lookup returns the active connection for userID, if any. It never blocks on
// anything but the registry lock itself.
func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Push writes message to userID's connection if one is registered. A write
// failure means the connection died mid-push: it is closed and evicted, and
// the push reports not-delivered. Callers treat both absence and failure as
// "recipient offline", never as an error.
func (r *Registry) Push(userID string, message []byte) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	if err := conn.Writer.Write(message); err != nil {
		r.evict(conn)
		return false
	}
	return true
}

// Broadcast writes message to every registered connection, evicting any
// connection whose write fails.
func (r *Registry) Broadcast(message []byte) {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		r.evict(c)
	}
}

// OnlineUserIDs returns the ids of all currently connected users.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}
