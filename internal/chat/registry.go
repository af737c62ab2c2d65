package chat

import "sync"

// Registry maps usernames to the connection holding them.
// A name maps to at most one connection and a connection holds at most one name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ConnID
	byConn map[ConnID]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]ConnID),
		byConn: make(map[ConnID]string),
	}
}

// Register binds name to conn.
// It fails with ErrNameTaken when another connection holds the name. Binding
// the name conn already holds is a no-op; binding a new one releases the old.
func (r *Registry) Register(name string, conn ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.byName[name]; ok {
		if holder == conn {
			return nil
		}
		return ErrNameTaken
	}

	if previous, ok := r.byConn[conn]; ok {
		delete(r.byName, previous)
	}
	r.byName[name] = conn
	r.byConn[conn] = name
	return nil
}

// Unregister releases whichever name conn holds. Unknown connections are ignored.
func (r *Registry) Unregister(conn ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	delete(r.byName, name)
	return name, true
}

// ResolveName returns the name held by conn.
func (r *Registry) ResolveName(conn ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byConn[conn]
	return name, ok
}

// Lookup returns the connection holding name.
func (r *Registry) Lookup(name string) (ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byName[name]
	return conn, ok
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
