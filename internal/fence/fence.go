// Package fence guards cache updates against out-of-order mutation
// responses. Two rapid edits to the same entity can settle in either
// order; each outgoing mutation takes a sequence number and responses
// behind the latest issued number for that entity are discarded.
package fence

import "sync"

// Guard tracks the latest issued sequence number per entity key.
type Guard struct {
	mu     sync.Mutex
	issued map[string]uint64
}

// NewGuard creates a new guard
func NewGuard() *Guard {
	return &Guard{issued: make(map[string]uint64)}
}

// Issue reserves the next sequence number for key. Call it before the
// request goes out.
func (g *Guard) Issue(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued[key]++
	return g.issued[key]
}

// Stale reports whether a response carrying seq has been superseded by a
// later mutation against the same key.
func (g *Guard) Stale(key string, seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return seq < g.issued[key]
}

// Forget drops the counter for key, e.g. after the entity is deleted.
func (g *Guard) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.issued, key)
}
