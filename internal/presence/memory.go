package presence

import (
	"context"
	"sort"
	"sync"
)

// MemoryRegistry is a process-local Registry. State is lost on restart, so
// every user appears offline until they reconnect.
type MemoryRegistry struct {
	mu     sync.RWMutex
	online map[int]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{online: make(map[int]string)}
}

func (r *MemoryRegistry) Register(_ context.Context, userID int, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = connID
	return nil
}

func (r *MemoryRegistry) Unregister(_ context.Context, userID int, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.online[userID]; ok && current == connID {
		delete(r.online, userID)
	}
	return nil
}

func (r *MemoryRegistry) Lookup(_ context.Context, userID int) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.online[userID]
	return connID, ok, nil
}

func (r *MemoryRegistry) Snapshot(_ context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.online))
	for id := range r.online {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
