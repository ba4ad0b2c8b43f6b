// services/inflight.go
package services

import "sync"

// InflightTracker marks records that currently have a background resolution
// or sync running, so overlapping sweep and monitor ticks never work the
// same record twice at once.
type InflightTracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewInflightTracker() *InflightTracker {
	return &InflightTracker{ids: make(map[string]struct{})}
}

// TryAcquire claims id; false means someone else already holds it.
func (t *InflightTracker) TryAcquire(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, held := t.ids[id]; held {
		return false
	}
	t.ids[id] = struct{}{}
	return true
}

func (t *InflightTracker) Release(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ids, id)
}
