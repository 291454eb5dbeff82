package cache

// Clearer is any cache that can be wiped in one call.
type Clearer interface {
	Clear() error
}

// Registry holds every cache constructed for a session so the
// orchestrator can invalidate all of them in one call — on rewind
// detection, or when a fresh user-provided AskUserQuestion answer is
// observed in a tool-result.
type Registry struct {
	caches []Clearer
}

// NewRegistry builds a registry that owns the full cache family for one
// session, scoping each to sessionID.
func NewRegistry(dir, sessionID string) (*Registry, *AckCache, *DenialCache, *RewindCache, *PendingValidationCache, *StrictModeCache) {
	ack := NewAckCache(dir)
	denial := NewDenialCache(dir)
	rewind := NewRewindCache(dir)
	pending := NewPendingValidationCache(dir)
	strict := NewStrictModeCache(dir)

	for _, c := range []interface{ SetSession(string) }{ack, denial, rewind, pending, strict} {
		c.SetSession(sessionID)
	}

	r := &Registry{caches: []Clearer{ack, denial, rewind, pending, strict}}
	return r, ack, denial, rewind, pending, strict
}

// Add registers an additional cache (e.g. the statusline buffer) so it
// participates in InvalidateAll.
func (r *Registry) Add(c Clearer) {
	r.caches = append(r.caches, c)
}

// InvalidateAll clears every cache registered so far. Errors from
// individual clears are collected but do not stop the sweep — a single
// file-removal failure shouldn't leave the rest of the family stale.
func (r *Registry) InvalidateAll() error {
	var firstErr error
	for _, c := range r.caches {
		if err := c.Clear(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
