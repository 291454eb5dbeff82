package cache

import "time"

// ackData maps an acknowledged error hash to when it was acknowledged,
// so a repeat of the same error on the same unresolved problem no longer
// needs a fresh error-acknowledge LLM call.
type ackData struct {
	Acknowledged map[string]time.Time `json:"acknowledged"`
}

// AckCache remembers which error hashes the error-acknowledge validator
// (or an overturned appeal of it) has already cleared for this session.
type AckCache struct {
	inner *SessionCache[ackData]
}

func NewAckCache(dir string) *AckCache {
	return &AckCache{inner: newSessionCache[ackData](dir, "ack")}
}

func (c *AckCache) SetSession(id string) { c.inner.SetSession(id) }
func (c *AckCache) Clear() error         { return c.inner.Clear() }

// IsAcknowledged reports whether hash has already been cleared.
func (c *AckCache) IsAcknowledged(hash string) bool {
	data, ok := c.inner.Load()
	if !ok || data.Acknowledged == nil {
		return false
	}
	_, found := data.Acknowledged[hash]
	return found
}

// MarkAcknowledged records hash as cleared for the remainder of the
// session.
func (c *AckCache) MarkAcknowledged(hash string) error {
	_, err := c.inner.Update("", func(d ackData) ackData {
		if d.Acknowledged == nil {
			d.Acknowledged = map[string]time.Time{}
		}
		d.Acknowledged[hash] = time.Now()
		return d
	})
	return err
}
