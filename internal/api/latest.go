package api

import "sync"

// RequestTracker hands out monotonically increasing request ids so a
// stale response can never overwrite a newer one. Polling refreshes and
// user-driven range changes may be in flight at the same time; only the
// result carrying the latest id is accepted.
type RequestTracker struct {
	mu     sync.Mutex
	latest uint64
}

// Begin registers a new request and returns its id, superseding all
// earlier ids.
func (t *RequestTracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	return t.latest
}

// Accept reports whether a result for the given id is still current.
// Results from superseded requests must be discarded.
func (t *RequestTracker) Accept(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id == t.latest
}
