// Package presence tracks which users currently hold an open realtime
// connection. Entries live only as long as the connection; nothing is persisted.
package presence

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Handle is an open realtime connection that can accept an encoded event.
// Deliver must not block; it reports whether the payload was queued.
type Handle interface {
	Deliver(payload []byte) bool
}

// Registry maps a user id to its single active connection handle.
// The last registration for a user wins.
type Registry struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[uuid.UUID]Handle)}
}

// Register sets the handle for userID, replacing any previous one without
// closing it. It reports whether userID was newly added to the key set.
func (r *Registry) Register(userID uuid.UUID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.handles[userID]
	r.handles[userID] = h
	return !existed
}

// Unregister removes userID unconditionally and reports whether it was present.
func (r *Registry) Unregister(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[userID]; !ok {
		return false
	}
	delete(r.handles, userID)
	return true
}

// UnregisterHandle removes userID only while h is still its current handle,
// so a replaced connection closing late cannot evict its successor.
func (r *Registry) UnregisterHandle(userID uuid.UUID, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.handles[userID]
	if !ok || current != h {
		return false
	}
	delete(r.handles, userID)
	return true
}

// Lookup is a point-in-time read; the handle may disconnect right after.
func (r *Registry) Lookup(userID uuid.UUID) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[userID]
	return h, ok
}

// Online returns the present user ids, sorted for stable output.
func (r *Registry) Online() []uuid.UUID {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids
}

// Handles returns a snapshot of every registered handle.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hs := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		hs = append(hs, h)
	}
	return hs
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
