package cache

import "time"

// EscalationThreshold is how many times the same workaround pattern must
// be denied before the reason text gets the "CRITICAL: " escalation
// prefix rather than just the plain denial reason.
const EscalationThreshold = 3

// DenialRecord tracks repeat offenses of one workaround pattern.
type DenialRecord struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

type denialData struct {
	Patterns map[string]DenialRecord `json:"patterns"`
}

// DenialCache counts repeated denials of the same workaround pattern
// (type-check, build, lint, test bypass attempts) within a session.
type DenialCache struct {
	inner *SessionCache[denialData]
}

func NewDenialCache(dir string) *DenialCache {
	return &DenialCache{inner: newSessionCache[denialData](dir, "denial")}
}

func (c *DenialCache) SetSession(id string) { c.inner.SetSession(id) }
func (c *DenialCache) Clear() error         { return c.inner.Clear() }

// RecordDenial bumps pattern's counter and returns the new count.
func (c *DenialCache) RecordDenial(pattern string) (int, error) {
	data, err := c.inner.Update("", func(d denialData) denialData {
		if d.Patterns == nil {
			d.Patterns = map[string]DenialRecord{}
		}
		rec := d.Patterns[pattern]
		rec.Count++
		rec.LastSeen = time.Now()
		d.Patterns[pattern] = rec
		return d
	})
	if err != nil {
		return 0, err
	}
	return data.Patterns[pattern].Count, nil
}

// ShouldEscalate reports whether pattern has crossed EscalationThreshold.
func (c *DenialCache) ShouldEscalate(pattern string) bool {
	data, ok := c.inner.Load()
	if !ok || data.Patterns == nil {
		return false
	}
	return data.Patterns[pattern].Count >= EscalationThreshold
}

// EscalationPrefix is prepended to a denial reason once ShouldEscalate
// fires for the tool's matched workaround category.
const EscalationPrefix = "CRITICAL: "
