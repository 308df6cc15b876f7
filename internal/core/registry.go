package core

import "sync"

// Registry maps live connection ids to clients. A connection id is present
// if and only if the connection is currently live; the Hub is the only
// writer, everything else reads.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Add inserts a client keyed by its connection id.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
}

// Remove deletes the entry for id. Returns false if it was already gone,
// which lets disconnect and explicit leave race without double cleanup.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	return true
}

// Get looks up a client by connection id.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// All returns a snapshot of every registered client.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
