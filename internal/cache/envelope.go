package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Envelope is the on-disk shape of every cache file: a session marker,
// the hash of the last user message seen when Data was written (for the
// load-path invalidation check), and the payload itself.
type Envelope[T any] struct {
	SessionID           string    `json:"sessionId"`
	LastUserMessageHash string    `json:"lastUserMessageHash,omitempty"`
	SavedAt             time.Time `json:"savedAt"`
	Data                T         `json:"data"`
}

// HashText produces the stable digest used for de-duplication and the
// stored-vs-current user message comparison. Not a security boundary —
// collision resistance at this size is plenty for de-duplicating a
// single conversation's messages.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
