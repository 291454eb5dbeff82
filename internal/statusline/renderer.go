// Package statusline renders the bounded decision log internal/cache's
// StatuslineBuffer keeps, for a host that wants to show recent hook
// activity. The sidecar never serves this itself; it only produces the
// ordered slice a host-side renderer displays.
package statusline

import (
	"sort"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
)

// Render returns the n most recent entries from entries, newest first.
// n <= 0 or n greater than len(entries) returns every entry.
func Render(entries []cache.StatuslineEntry, n int) []cache.StatuslineEntry {
	sorted := make([]cache.StatuslineEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if n <= 0 || n > len(sorted) {
		return sorted
	}
	return sorted[:n]
}
