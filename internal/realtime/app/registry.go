package app

import "sync"

// Registry maps user ids to their single live connection, plus the one
// privileged (guide) binding. It is process-local and holds no durable
// state: a restart empties it and every client re-authenticates.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string // userID -> connectionID

	adminUser string
	adminConn string
}

// NewRegistry create an empty Registry, one per hub process.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]string),
	}
}

// Bind records userID -> connID. Last-authenticated wins: an existing
// binding for the same user is replaced. A privileged bind also replaces
// the remembered guide connection.
func (r *Registry) Bind(userID, connID string, privileged bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[userID] = connID
	if privileged {
		r.adminUser = userID
		r.adminConn = connID
	}
}

// Lookup the live connection of a user.
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.conns[userID]
	return connID, ok
}

// LookupAdmin the live privileged connection, if any.
func (r *Registry) LookupAdmin() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.adminConn, r.adminConn != ""
}

// Release removes every binding still pointing at connID. A binding the
// user has since replaced with a newer connection is left alone, so a
// stale connection's delayed teardown cannot evict the live session.
func (r *Registry) Release(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, boundConn := range r.conns {
		if boundConn == connID {
			delete(r.conns, userID)
		}
	}
	if r.adminConn == connID {
		r.adminConn = ""
		r.adminUser = ""
	}
}

// Size the number of live bindings.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
