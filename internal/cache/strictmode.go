package cache

// strictModeData is the per-session strict-mode tracker: how many tool
// calls have been accepted, and whether the very next one must bypass
// the lazy trusted-file fast path regardless of the periodic check.
type strictModeData struct {
	ToolCount int  `json:"toolCount"`
	ForceNext bool `json:"forceNext"`
}

// StrictModeCache decides whether the next tool call must run the full
// synchronous validator pipeline instead of the lazy fast path, even on
// an otherwise-trusted file path.
type StrictModeCache struct {
	inner *SessionCache[strictModeData]
}

func NewStrictModeCache(dir string) *StrictModeCache {
	return &StrictModeCache{inner: newSessionCache[strictModeData](dir, "strictmode")}
}

func (c *StrictModeCache) SetSession(id string) { c.inner.SetSession(id) }
func (c *StrictModeCache) Clear() error         { return c.inner.Clear() }

// ShouldForceStrict reports whether the lazy path should be skipped this
// call: either a prior failure explicitly asked for it, or the periodic
// check (every Nth accepted tool call) lands on this one.
func (c *StrictModeCache) ShouldForceStrict(every int) bool {
	data, ok := c.inner.Load()
	if !ok {
		return false
	}
	if data.ForceNext {
		return true
	}
	return every > 0 && data.ToolCount > 0 && data.ToolCount%every == 0
}

// RecordToolAccepted increments the tool-call counter and clears the
// one-shot force flag, per the orchestrator's final "accept" step.
func (c *StrictModeCache) RecordToolAccepted() error {
	_, err := c.inner.Update("", func(d strictModeData) strictModeData {
		d.ToolCount++
		d.ForceNext = false
		return d
	})
	return err
}

// ForceStrictNext requests that the next tool call bypass the lazy path
// regardless of the periodic check — used after a background validator
// reports a failure, so the following call gets a synchronous re-check.
func (c *StrictModeCache) ForceStrictNext() error {
	_, err := c.inner.Update("", func(d strictModeData) strictModeData {
		d.ForceNext = true
		return d
	})
	return err
}
