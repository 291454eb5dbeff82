package cache

import "time"

// StatuslineMaxEntries bounds the ring buffer; the oldest entry is
// dropped once a new append would exceed it.
const StatuslineMaxEntries = 50

// StatuslineMaxAge expires an entry outright regardless of buffer size,
// so a long-idle session doesn't show stale decisions from hours ago.
const StatuslineMaxAge = 30 * time.Minute

// StatuslineEntry is one logged hook decision, the unit the host-side
// status line renders.
type StatuslineEntry struct {
	Agent         string    `json:"agent"`
	Decision      string    `json:"decision"`
	ToolName      string    `json:"toolName,omitempty"`
	ExecutionType string    `json:"executionType"` // "sync" or "lazy"
	LatencyMs     int64     `json:"latencyMs"`
	Timestamp     time.Time `json:"timestamp"`
}

// StatuslineBuffer is the bounded, session-scoped decision log the host
// status line renders: append-and-trim on every logged decision.
type StatuslineBuffer struct {
	inner *SessionCache[[]StatuslineEntry]
}

func NewStatuslineBuffer(dir string) *StatuslineBuffer {
	return &StatuslineBuffer{inner: newSessionCache[[]StatuslineEntry](dir, "statusline")}
}

func (c *StatuslineBuffer) SetSession(id string) { c.inner.SetSession(id) }
func (c *StatuslineBuffer) Clear() error         { return c.inner.Clear() }

// Append adds e to the buffer, trimming expired entries and the oldest
// surplus entries past StatuslineMaxEntries.
func (c *StatuslineBuffer) Append(e StatuslineEntry) error {
	_, err := c.inner.Update("", func(entries []StatuslineEntry) []StatuslineEntry {
		entries = append(entries, e)
		entries = dropExpiredStatusline(entries, time.Now())
		if len(entries) > StatuslineMaxEntries {
			entries = entries[len(entries)-StatuslineMaxEntries:]
		}
		return entries
	})
	return err
}

// Entries returns the buffer's current contents, with expired entries
// dropped, oldest first.
func (c *StatuslineBuffer) Entries() []StatuslineEntry {
	entries, ok := c.inner.Load()
	if !ok {
		return nil
	}
	return dropExpiredStatusline(entries, time.Now())
}

func dropExpiredStatusline(entries []StatuslineEntry, now time.Time) []StatuslineEntry {
	kept := entries[:0]
	for _, e := range entries {
		if now.Sub(e.Timestamp) <= StatuslineMaxAge {
			kept = append(kept, e)
		}
	}
	return kept
}
