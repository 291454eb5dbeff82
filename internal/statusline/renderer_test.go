package statusline

import (
	"testing"
	"time"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
	"github.com/stretchr/testify/require"
)

func TestRender_NewestFirst(t *testing.T) {
	now := time.Now()
	entries := []cache.StatuslineEntry{
		{Agent: "tool-approve", Timestamp: now.Add(-2 * time.Minute)},
		{Agent: "response-align", Timestamp: now},
		{Agent: "error-acknowledge", Timestamp: now.Add(-1 * time.Minute)},
	}
	out := Render(entries, 0)
	require.Len(t, out, 3)
	require.Equal(t, "response-align", out[0].Agent)
	require.Equal(t, "error-acknowledge", out[1].Agent)
	require.Equal(t, "tool-approve", out[2].Agent)
}

func TestRender_LimitsToN(t *testing.T) {
	now := time.Now()
	entries := []cache.StatuslineEntry{
		{Agent: "a", Timestamp: now.Add(-1 * time.Minute)},
		{Agent: "b", Timestamp: now},
	}
	out := Render(entries, 1)
	require.Len(t, out, 1)
	require.Equal(t, "b", out[0].Agent)
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	entries := []cache.StatuslineEntry{
		{Agent: "a", Timestamp: now.Add(-1 * time.Minute)},
		{Agent: "b", Timestamp: now},
	}
	_ = Render(entries, 1)
	require.Equal(t, "a", entries[0].Agent)
}
