package cache

import "time"

// PendingStatus is the outcome of a background-validated tool call.
type PendingStatus string

const (
	PendingStatusOK     PendingStatus = "ok"
	PendingStatusFailed PendingStatus = "failed"
)

// PendingValidation is the background validator's verdict on the last
// trusted-file tool call it evaluated lazily.
type PendingValidation struct {
	Status    PendingStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	ToolName  string        `json:"toolName,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// PendingValidationCache holds exactly one envelope: the last background
// validation result. The background process writes it; the next
// foreground hook invocation reads and, on failure, clears it so a
// single bad verdict doesn't block every subsequent tool call forever.
type PendingValidationCache struct {
	inner *SessionCache[PendingValidation]
}

func NewPendingValidationCache(dir string) *PendingValidationCache {
	return &PendingValidationCache{inner: newSessionCache[PendingValidation](dir, "pending")}
}

func (c *PendingValidationCache) SetSession(id string) { c.inner.SetSession(id) }
func (c *PendingValidationCache) Clear() error         { return c.inner.Clear() }

// Result returns the last recorded verdict, if any.
func (c *PendingValidationCache) Result() (PendingValidation, bool) {
	return c.inner.Load()
}

// SetResult persists the background validator's verdict.
func (c *PendingValidationCache) SetResult(result PendingValidation) error {
	result.CheckedAt = time.Now()
	return c.inner.Save(result, "")
}

// MarkFailedToSpawn writes an immediate failed verdict, used when the
// detached background validator subprocess itself could not be started.
func (c *PendingValidationCache) MarkFailedToSpawn(toolName string) error {
	return c.SetResult(PendingValidation{
		Status:   PendingStatusFailed,
		Reason:   "background validator failed to spawn",
		ToolName: toolName,
	})
}
