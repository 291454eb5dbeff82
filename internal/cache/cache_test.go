package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore[string](dir, "widget")

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(Envelope[string]{SessionID: "s1", Data: "hello"}))

	env, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", env.Data)
	require.Equal(t, "s1", env.SessionID)
}

func TestFileStore_ClearRemovesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore[int](dir, "counter")
	require.NoError(t, store.Save(Envelope[int]{Data: 42}))
	require.NoError(t, store.Clear())

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	// clearing an already-absent file is not an error
	require.NoError(t, store.Clear())
}

func TestSessionCache_SessionMismatchIsTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	c := newSessionCache[string](dir, "widget")
	c.SetSession("session-a")
	require.NoError(t, c.Save("value", ""))

	c.SetSession("session-b")
	_, ok := c.Load()
	require.False(t, ok)
}

func TestSessionCache_CheckUserMessageClearsOnMismatch(t *testing.T) {
	dir := t.TempDir()
	c := newSessionCache[string](dir, "widget")
	c.SetSession("session-a")
	require.NoError(t, c.Save("value", HashText("first message")))

	cleared := c.CheckUserMessage("a different message")
	require.True(t, cleared)

	_, ok := c.Load()
	require.False(t, ok, "cache should have been cleared")
}

func TestSessionCache_CheckUserMessageNoOpOnMatch(t *testing.T) {
	dir := t.TempDir()
	c := newSessionCache[string](dir, "widget")
	c.SetSession("session-a")
	require.NoError(t, c.Save("value", HashText("same message")))

	cleared := c.CheckUserMessage("same message")
	require.False(t, cleared)

	val, ok := c.Load()
	require.True(t, ok)
	require.Equal(t, "value", val)
}

func TestAckCache_MarkAndCheck(t *testing.T) {
	dir := t.TempDir()
	c := NewAckCache(dir)
	c.SetSession("s1")

	require.False(t, c.IsAcknowledged("err-hash-1"))
	require.NoError(t, c.MarkAcknowledged("err-hash-1"))
	require.True(t, c.IsAcknowledged("err-hash-1"))
	require.False(t, c.IsAcknowledged("err-hash-2"))
}

func TestDenialCache_EscalatesPastThreshold(t *testing.T) {
	dir := t.TempDir()
	c := NewDenialCache(dir)
	c.SetSession("s1")

	for i := 0; i < EscalationThreshold-1; i++ {
		_, err := c.RecordDenial("build-bypass")
		require.NoError(t, err)
	}
	require.False(t, c.ShouldEscalate("build-bypass"))

	_, err := c.RecordDenial("build-bypass")
	require.NoError(t, err)
	require.True(t, c.ShouldEscalate("build-bypass"))
}

func TestRewindCache_RecordUserMessageDeduplicatesAndTracksFirstResponse(t *testing.T) {
	dir := t.TempDir()
	c := NewRewindCache(dir)
	c.SetSession("s1")

	require.NoError(t, c.SetFirstResponseChecked(true))
	require.True(t, c.FirstResponseChecked())

	isNew, err := c.RecordUserMessage("hello there", 3)
	require.NoError(t, err)
	require.True(t, isNew)
	require.False(t, c.FirstResponseChecked(), "a genuinely new message resets the flag")

	require.NoError(t, c.SetFirstResponseChecked(true))
	isNew, err = c.RecordUserMessage("hello there", 3)
	require.NoError(t, err)
	require.False(t, isNew, "duplicate message should not reset the flag")
	require.True(t, c.FirstResponseChecked())
}

func TestRewindCache_DetectRewind(t *testing.T) {
	dir := t.TempDir()
	c := NewRewindCache(dir)
	c.SetSession("s1")

	_, err := c.RecordUserMessage("please add a retry loop", 1)
	require.NoError(t, err)

	require.False(t, c.DetectRewind("USER: please add a retry loop\nASSISTANT: done"))
	require.True(t, c.DetectRewind("USER: something else entirely\nASSISTANT: ok"),
		"the recorded message no longer appears, so the session rewound")
}

func TestRewindCache_CheckedByAgentIsPerAgent(t *testing.T) {
	dir := t.TempDir()
	c := NewRewindCache(dir)
	c.SetSession("s1")

	require.False(t, c.IsMessageCheckedByAgent("response-align", "do the thing"))
	require.NoError(t, c.MarkMessageCheckedByAgent("response-align", "do the thing"))
	require.True(t, c.IsMessageCheckedByAgent("response-align", "do the thing"))
	require.False(t, c.IsMessageCheckedByAgent("error-acknowledge", "do the thing"))
}

func TestStrictModeCache_PeriodicAndForcedStrict(t *testing.T) {
	dir := t.TempDir()
	c := NewStrictModeCache(dir)
	c.SetSession("s1")

	require.False(t, c.ShouldForceStrict(5))

	for i := 0; i < 4; i++ {
		require.NoError(t, c.RecordToolAccepted())
	}
	require.False(t, c.ShouldForceStrict(5))

	require.NoError(t, c.RecordToolAccepted())
	require.True(t, c.ShouldForceStrict(5), "5th accepted tool call should force a strict pass")
}

func TestStrictModeCache_ForceStrictNextIsOneShot(t *testing.T) {
	dir := t.TempDir()
	c := NewStrictModeCache(dir)
	c.SetSession("s1")

	require.NoError(t, c.ForceStrictNext())
	require.True(t, c.ShouldForceStrict(1000))

	require.NoError(t, c.RecordToolAccepted())
	require.False(t, c.ShouldForceStrict(1000), "accepting a tool clears the one-shot force flag")
}

func TestPendingValidationCache_SetAndRead(t *testing.T) {
	dir := t.TempDir()
	c := NewPendingValidationCache(dir)
	c.SetSession("s1")

	_, ok := c.Result()
	require.False(t, ok)

	require.NoError(t, c.SetResult(PendingValidation{Status: PendingStatusFailed, Reason: "style drift", ToolName: "Edit"}))

	result, ok := c.Result()
	require.True(t, ok)
	require.Equal(t, PendingStatusFailed, result.Status)
	require.Equal(t, "Edit", result.ToolName)
}

func TestRegistry_InvalidateAllClearsEveryCache(t *testing.T) {
	dir := t.TempDir()
	registry, ack, denial, rewind, pending, strict := NewRegistry(dir, "s1")

	require.NoError(t, ack.MarkAcknowledged("h1"))
	_, err := denial.RecordDenial("lint-bypass")
	require.NoError(t, err)
	_, err = rewind.RecordUserMessage("hi", 0)
	require.NoError(t, err)
	require.NoError(t, pending.SetResult(PendingValidation{Status: PendingStatusOK}))
	require.NoError(t, strict.RecordToolAccepted())

	require.NoError(t, registry.InvalidateAll())

	require.False(t, ack.IsAcknowledged("h1"))
	require.False(t, denial.ShouldEscalate("lint-bypass"))
	_, ok := pending.Result()
	require.False(t, ok)
}

func TestStatuslineBuffer_AppendAndTrim(t *testing.T) {
	dir := t.TempDir()
	buf := NewStatuslineBuffer(dir)
	buf.SetSession("s1")

	for i := 0; i < StatuslineMaxEntries+5; i++ {
		require.NoError(t, buf.Append(StatuslineEntry{
			Agent:     "tool-approve",
			Decision:  "allow",
			Timestamp: time.Now(),
		}))
	}

	entries := buf.Entries()
	require.Len(t, entries, StatuslineMaxEntries)
}

func TestStatuslineBuffer_DropsExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	buf := NewStatuslineBuffer(dir)
	buf.SetSession("s1")

	require.NoError(t, buf.Append(StatuslineEntry{
		Agent:     "stale",
		Timestamp: time.Now().Add(-2 * StatuslineMaxAge),
	}))
	require.NoError(t, buf.Append(StatuslineEntry{
		Agent:     "fresh",
		Timestamp: time.Now(),
	}))

	entries := buf.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "fresh", entries[0].Agent)
}
