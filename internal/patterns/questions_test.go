package patterns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPlainTextQuestion(t *testing.T) {
	require.True(t, IsPlainTextQuestion("Should I use Redis or Postgres here?"))
	require.True(t, IsPlainTextQuestion("Great, done.\nWhich file should I edit next?"))
	require.False(t, IsPlainTextQuestion("Done, all tests pass."))
}

func TestIsPlanApprovalPrompt(t *testing.T) {
	require.True(t, IsPlanApprovalPrompt("Here's my plan: 1. do X 2. do Y. Ready to proceed?"))
	require.True(t, IsPlanApprovalPrompt("Shall I proceed?"))
	require.False(t, IsPlanApprovalPrompt("I've implemented the feature and all tests pass."))
}

func TestHasAcknowledgmentPrefix(t *testing.T) {
	require.True(t, HasAcknowledgmentPrefix("I'll look into it."))
	require.True(t, HasAcknowledgmentPrefix("Got it, checking now."))
	require.False(t, HasAcknowledgmentPrefix("The build fails because of a missing import."))
}

func TestExtractQuestion(t *testing.T) {
	q, ok := ExtractQuestion(`Why does the build fail?`)
	require.True(t, ok)
	require.Equal(t, "Why does the build fail?", q)
}

func TestExtractQuestion_NoQuestion(t *testing.T) {
	_, ok := ExtractQuestion("Please handle what is being said in the logs.")
	require.False(t, ok)
}

func TestExtractQuestion_IgnoresQuotedContent(t *testing.T) {
	_, ok := ExtractQuestion(`The error says "what is happening here?" in the stack trace.`)
	require.False(t, ok)
}
