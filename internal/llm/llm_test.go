package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeUsage_AnthropicShape(t *testing.T) {
	u := normalizeUsage(map[string]interface{}{
		"input_tokens":            float64(100),
		"output_tokens":           float64(20),
		"cache_read_input_tokens": float64(30),
	})
	require.NotNil(t, u)
	require.Equal(t, 100, u.PromptTokens)
	require.Equal(t, 20, u.CompletionTokens)
	require.Equal(t, 30, u.CachedTokens)
	require.Equal(t, 120, u.TotalTokens)
}

func TestNormalizeUsage_OpenAIShape(t *testing.T) {
	u := normalizeUsage(map[string]interface{}{
		"prompt_tokens":     float64(50),
		"completion_tokens": float64(10),
		"prompt_tokens_details": map[string]interface{}{
			"cached_tokens": float64(5),
		},
		"completion_tokens_details": map[string]interface{}{
			"reasoning_tokens": float64(4),
		},
	})
	require.NotNil(t, u)
	require.Equal(t, 50, u.PromptTokens)
	require.Equal(t, 10, u.CompletionTokens)
	require.Equal(t, 5, u.CachedTokens)
	require.Equal(t, 4, u.ReasoningTokens)
	require.Equal(t, 60, u.TotalTokens)
}

func TestNormalizeUsage_Nil(t *testing.T) {
	require.Nil(t, normalizeUsage(nil))
}

func TestMergeUsage_AccumulatesAcrossCalls(t *testing.T) {
	var total *Usage
	total = mergeUsage(total, &Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12})
	total = mergeUsage(total, &Usage{PromptTokens: 5, CompletionTokens: 1, TotalTokens: 6})
	require.Equal(t, 15, total.PromptTokens)
	require.Equal(t, 3, total.CompletionTokens)
	require.Equal(t, 18, total.TotalTokens)
}

func TestMergeUsage_NilAddIsNoOp(t *testing.T) {
	base := &Usage{PromptTokens: 3}
	require.Equal(t, base, mergeUsage(base, nil))
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 5*time.Second, ParseRetryAfter("5"))
	require.Equal(t, time.Duration(0), ParseRetryAfter(""))
	require.Equal(t, time.Duration(0), ParseRetryAfter("not-a-number"))
	require.Equal(t, time.Duration(0), ParseRetryAfter("-1"))
}

func TestRetryDo_SucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := RetryDo(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 1, calls)
}

func TestRetryDo_RetriesOn429ThenSucceeds(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	result, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 2 {
			return "", &HTTPError{Status: 429}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 2, calls)
}

func TestRetryDo_DoesNotRetryNonRetryableError(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 400}
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 500}
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
	cancel()
	_, err := RetryDo(ctx, cfg, func() (string, error) {
		return "", &HTTPError{Status: 500}
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeOutput_StripsThinkingTags(t *testing.T) {
	out := SanitizeOutput("<thinking>internal musing</thinking>APPROVE")
	require.Equal(t, "APPROVE", out)
}

func TestSanitizeOutput_StripsGarbledToolXML(t *testing.T) {
	out := SanitizeOutput("<tool_call>broken</tool_call>DENY: bad command")
	require.Equal(t, "DENY: bad command", out)
}

func TestSanitizeOutput_CollapsesDuplicateBlocks(t *testing.T) {
	out := SanitizeOutput("same line\n\nsame line\n\nnext")
	require.Equal(t, "same line\n\nnext", out)
}

func TestSanitizeOutput_EmptyInput(t *testing.T) {
	require.Equal(t, "", SanitizeOutput(""))
}

func TestFormatValidAlways_AcceptsPrebuiltResultText(t *testing.T) {
	// RunAgentWithRetry itself is not exercised here since RunAgent
	// requires network credentials — this test only checks the
	// always-true format validator helper against a pre-built Result's
	// text.
	result := Result{Text: "APPROVE", Success: true}
	require.True(t, formatValidAlways(result.Text))
}

func formatValidAlways(string) bool { return true }

func TestIsRetryable_PlainErrorIsNotRetryable(t *testing.T) {
	err := errors.New("plain error, not retryable")
	require.False(t, isRetryable(err))
}

func TestDispatchTool_UnknownToolErrors(t *testing.T) {
	tools := builtinReadOnlyTools(t.TempDir())
	_, err := dispatchTool(tools, "NotATool", nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown tool"))
}

func TestBuiltinReadOnlyTools_ReadRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	tools := builtinReadOnlyTools(dir)
	var readTool Tool
	for _, tool := range tools {
		if tool.Name == "Read" {
			readTool = tool
		}
	}
	require.NotNil(t, readTool.Handler)
	_, err := readTool.Handler(map[string]interface{}{"path": "../../../../etc/passwd"})
	require.Error(t, err)
}
