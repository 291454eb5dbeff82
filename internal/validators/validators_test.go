package validators

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
	"github.com/stretchr/testify/require"
)

func llmConfig() llm.Config {
	return llm.Config{Tier: llm.TierSmall, Mode: llm.ModeDirect}
}

func TestParseApproveDeny(t *testing.T) {
	d, ok := parseApproveDeny("APPROVE")
	require.True(t, ok)
	require.Equal(t, KindAllow, d.Kind)

	d, ok = parseApproveDeny("DENY: destructive command")
	require.True(t, ok)
	require.Equal(t, KindDeny, d.Kind)
	require.Equal(t, "destructive command", d.Reason)

	_, ok = parseApproveDeny("maybe?")
	require.False(t, ok)
}

func TestParseOKBlock(t *testing.T) {
	d, ok := parseOKBlock("OK")
	require.True(t, ok)
	require.Equal(t, KindAllow, d.Kind)

	d, ok = parseOKBlock("BLOCK: same error repeated")
	require.True(t, ok)
	require.Equal(t, "same error repeated", d.Reason)
}

func TestParseOKDrift(t *testing.T) {
	d, ok := parseOKDrift("DRIFT: adds a timeline the user never asked for")
	require.True(t, ok)
	require.Equal(t, KindDeny, d.Kind)

	_, ok = parseOKDrift("BLOCK: wrong grammar")
	require.False(t, ok)
}

func TestParseAppealVerdict(t *testing.T) {
	v, ok := parseAppealVerdict("UPHOLD")
	require.True(t, ok)
	require.True(t, v.uphold)

	v, ok = parseAppealVerdict("OVERTURN: APPROVE")
	require.True(t, ok)
	require.True(t, v.approve)

	v, ok = parseAppealVerdict("OVERTURN: user ran /deploy explicitly")
	require.True(t, ok)
	require.True(t, v.overturn)
	require.Equal(t, "user ran /deploy explicitly", v.newReason)

	v, ok = parseAppealVerdict("DENY")
	require.True(t, ok)
	require.True(t, v.uphold)
}

func TestMalformedReason_Truncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	reason := MalformedReason(string(long))
	require.Contains(t, reason, "Malformed response:")
	require.Contains(t, reason, "...")
}

func TestResponseAlignPreTool_ShortCircuitsForSubagent(t *testing.T) {
	d, err := ResponseAlignPreTool(context.Background(), llmConfig(), llmConfig(), ResponseAlignPreToolInput{
		IsSubagent: true,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestResponseAlignPreTool_ShortCircuitsWithNoUserMessage(t *testing.T) {
	d, err := ResponseAlignPreTool(context.Background(), llmConfig(), llmConfig(), ResponseAlignPreToolInput{
		HasUserMessage: false,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestResponseAlignPreTool_ShortCircuitsWithFreshAnswer(t *testing.T) {
	d, err := ResponseAlignPreTool(context.Background(), llmConfig(), llmConfig(), ResponseAlignPreToolInput{
		HasUserMessage:   true,
		FreshAnswerFound: true,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestResponseAlignStop_NoHintsContinues(t *testing.T) {
	d, err := ResponseAlignStop(context.Background(), llmConfig(), ResponseAlignStopInput{})
	require.NoError(t, err)
	require.Equal(t, KindContinue, d.Kind)
}

func TestStyleDrift_EmptyContentApproves(t *testing.T) {
	detector := patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: "double"})
	d, err := StyleDrift(context.Background(), llmConfig(), detector, StyleDriftInput{})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestStyleDrift_EmojiAdditionDenies(t *testing.T) {
	detector := patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: "double"})
	d, err := StyleDrift(context.Background(), llmConfig(), detector, StyleDriftInput{
		OldContent: "done",
		NewContent: "done 🎉",
	})
	require.NoError(t, err)
	require.Equal(t, KindDeny, d.Kind)
}

func TestStyleDrift_QuoteChangeAwayFromPreferenceDenies(t *testing.T) {
	detector := patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: "double"})
	d, err := StyleDrift(context.Background(), llmConfig(), detector, StyleDriftInput{
		OldContent: `const x = "a"`,
		NewContent: `const x = 'a'`,
	})
	require.NoError(t, err)
	require.Equal(t, KindDeny, d.Kind)
	require.Contains(t, d.Reason, "quote change")
}

func TestStyleDrift_QuoteCleanupTowardPreferenceApproves(t *testing.T) {
	detector := patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: "double"})
	d, err := StyleDrift(context.Background(), llmConfig(), detector, StyleDriftInput{
		OldContent: `const x = 'a'`,
		NewContent: `const x = "a"`,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestStyleDrift_NoChangeApproves(t *testing.T) {
	detector := patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: "double"})
	d, err := StyleDrift(context.Background(), llmConfig(), detector, StyleDriftInput{
		OldContent: `const x = "a"`,
		NewContent: `const x = "a"`,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}

func TestToolApprove_LazyModeSkipsLLMWhenNoHighlights(t *testing.T) {
	d, err := ToolApprove(context.Background(), llmConfig(), llmConfig(), ToolApproveInput{
		LazyMode:            true,
		BlacklistHighlights: nil,
	})
	require.NoError(t, err)
	require.Equal(t, KindAllow, d.Kind)
}
