package cache

import "strings"

// RewindEntry is one recorded user message: its hash for de-duplication,
// the raw text for the rewind substring check, and where it sat in the
// transcript when recorded.
type RewindEntry struct {
	Hash      string `json:"hash"`
	Text      string `json:"text"`
	LineIndex int     `json:"lineIndex"`
}

type rewindData struct {
	Entries              []RewindEntry       `json:"entries"`
	FirstResponseChecked bool                `json:"firstResponseChecked"`
	CheckedByAgent       map[string][]string `json:"checkedByAgent"`
}

// RewindCache is the authoritative user-message log for a session. It
// also owns the first-response flag and the per-agent already-checked
// sets that keep parallel tool calls from re-running the same validator
// against the same user message.
type RewindCache struct {
	inner *SessionCache[rewindData]
}

func NewRewindCache(dir string) *RewindCache {
	return &RewindCache{inner: newSessionCache[rewindData](dir, "rewind")}
}

func (c *RewindCache) SetSession(id string) { c.inner.SetSession(id) }
func (c *RewindCache) Clear() error         { return c.inner.Clear() }

// RecordUserMessage hashes text, de-duplicates by hash, and appends it if
// new. A genuinely new message resets firstResponseChecked, since the
// assistant has not yet responded to it. It returns whether the message
// was new.
func (c *RewindCache) RecordUserMessage(text string, lineIndex int) (bool, error) {
	hash := HashText(text)
	isNew := false
	_, err := c.inner.Update("", func(d rewindData) rewindData {
		for _, e := range d.Entries {
			if e.Hash == hash {
				return d
			}
		}
		isNew = true
		d.Entries = append(d.Entries, RewindEntry{Hash: hash, Text: text, LineIndex: lineIndex})
		d.FirstResponseChecked = false
		return d
	})
	return isNew, err
}

// DetectRewind reports whether the host's UI has rewound the
// conversation: true when any previously recorded user message no
// longer appears anywhere in currentTranscriptText.
func (c *RewindCache) DetectRewind(currentTranscriptText string) bool {
	data, ok := c.inner.Load()
	if !ok {
		return false
	}
	for _, e := range data.Entries {
		if e.Text == "" {
			continue
		}
		if !strings.Contains(currentTranscriptText, e.Text) {
			return true
		}
	}
	return false
}

// FirstResponseChecked reports whether the response-align agent has
// already run for the current user message.
func (c *RewindCache) FirstResponseChecked() bool {
	data, ok := c.inner.Load()
	return ok && data.FirstResponseChecked
}

// SetFirstResponseChecked marks (or clears) the first-response flag.
func (c *RewindCache) SetFirstResponseChecked(checked bool) error {
	_, err := c.inner.Update("", func(d rewindData) rewindData {
		d.FirstResponseChecked = checked
		return d
	})
	return err
}

// MarkMessageCheckedByAgent records that agent has already evaluated
// text, so concurrent tool calls responding to the same user message
// don't re-invoke the same validator.
func (c *RewindCache) MarkMessageCheckedByAgent(agent, text string) error {
	hash := HashText(text)
	_, err := c.inner.Update("", func(d rewindData) rewindData {
		if d.CheckedByAgent == nil {
			d.CheckedByAgent = map[string][]string{}
		}
		for _, h := range d.CheckedByAgent[agent] {
			if h == hash {
				return d
			}
		}
		d.CheckedByAgent[agent] = append(d.CheckedByAgent[agent], hash)
		return d
	})
	return err
}

// IsMessageCheckedByAgent reports whether agent has already evaluated
// text in this session.
func (c *RewindCache) IsMessageCheckedByAgent(agent, text string) bool {
	data, ok := c.inner.Load()
	if !ok || data.CheckedByAgent == nil {
		return false
	}
	hash := HashText(text)
	for _, h := range data.CheckedByAgent[agent] {
		if h == hash {
			return true
		}
	}
	return false
}
