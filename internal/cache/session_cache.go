package cache

import "time"

// SessionCache adds session-scoping and staleness rules on top of a
// bare FileStore: a session-ID mismatch on load is
// treated as absent, and a changed last-user-message hash clears the
// cache before the caller sees it.
type SessionCache[T any] struct {
	store     *FileStore[T]
	sessionID string
}

func newSessionCache[T any](dir, name string) *SessionCache[T] {
	return &SessionCache[T]{store: NewFileStore[T](dir, name)}
}

// SetSession scopes subsequent Load/Save calls to sessionID.
func (c *SessionCache[T]) SetSession(sessionID string) {
	c.sessionID = sessionID
}

// Load returns the cached payload, or the zero value and false if the
// file is absent, corrupt, or stamped with a different session.
func (c *SessionCache[T]) Load() (T, bool) {
	env, ok, err := c.store.Load()
	if err != nil || !ok {
		var zero T
		return zero, false
	}
	if c.sessionID != "" && env.SessionID != "" && env.SessionID != c.sessionID {
		var zero T
		return zero, false
	}
	return env.Data, true
}

// Save persists data under the current session with the given last-user-
// message hash, so a later CheckUserMessage call can detect staleness.
func (c *SessionCache[T]) Save(data T, lastUserMessageHash string) error {
	return c.store.Save(Envelope[T]{
		SessionID:           c.sessionID,
		LastUserMessageHash: lastUserMessageHash,
		SavedAt:             time.Now(),
		Data:                data,
	})
}

// Clear removes the cache file outright.
func (c *SessionCache[T]) Clear() error {
	return c.store.Clear()
}

// CheckUserMessage compares text's hash against the stored hash. A
// mismatch means the conversation moved on since this cache was last
// written, so the stale entry is cleared; the return value tells the
// caller whether that happened.
func (c *SessionCache[T]) CheckUserMessage(text string) bool {
	env, ok, err := c.store.Load()
	if err != nil || !ok {
		return false
	}
	if env.LastUserMessageHash == "" {
		return false
	}
	if env.LastUserMessageHash == HashText(text) {
		return false
	}
	_ = c.store.Clear()
	return true
}

// Update loads the current payload (or zero value if absent), applies
// fn, and saves the result back under lastUserMessageHash. Not a
// cross-process compare-and-swap — the rename-based writes in FileStore
// make each individual Save crash-safe, which combined with the
// idempotent per-agent marks each validator already makes is what this
// actually relies on for correctness across parallel hook invocations.
func (c *SessionCache[T]) Update(lastUserMessageHash string, fn func(T) T) (T, error) {
	data, _ := c.Load()
	data = fn(data)
	if err := c.Save(data, lastUserMessageHash); err != nil {
		var zero T
		return zero, err
	}
	return data, nil
}
