package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	require.NoError(t, err)
	return path
}

func userLine(text string) string {
	return `{"message":{"role":"user","content":` + quoteJSON(text) + `}}`
}

func assistantLine(text string) string {
	return `{"message":{"role":"assistant","content":` + quoteJSON(text) + `}}`
}

func quoteJSON(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	return `"` + escaped + `"`
}

func TestRead_BasicRoleQuotas(t *testing.T) {
	path := writeTranscript(t,
		userLine("first question"),
		assistantLine("first answer"),
		userLine("second question"),
		assistantLine("second answer"),
		userLine("third question"),
	)

	view, err := Read(path, Spec{
		User:      RoleQuota{Count: 2},
		Assistant: RoleQuota{Count: 1},
	})
	require.NoError(t, err)

	require.Len(t, view.User, 2)
	require.Equal(t, "third question", view.User[0].Content)
	require.Equal(t, "second question", view.User[1].Content)

	require.Len(t, view.Assistant, 1)
	require.Equal(t, "second answer", view.Assistant[0].Content)
}

func TestRead_StalenessBound(t *testing.T) {
	lines := []string{
		userLine("too old to collect"),
	}
	for i := 0; i < 5; i++ {
		lines = append(lines, assistantLine("filler"))
	}

	path := writeTranscript(t, lines...)

	view, err := Read(path, Spec{
		User: RoleQuota{Count: 1, MaxStale: 2},
	})
	require.NoError(t, err)
	require.Empty(t, view.User, "user message is 5 raw entries from the tail, past MaxStale of 2")
}

func TestRead_DropsSystemReminders(t *testing.T) {
	path := writeTranscript(t,
		userLine("<system-reminder>do not mention this</system-reminder>"),
		userLine("a real user message"),
	)

	view, err := Read(path, Spec{
		User:                RoleQuota{Count: 5},
		DropSystemReminders: true,
	})
	require.NoError(t, err)
	require.Len(t, view.User, 1)
	require.Equal(t, "a real user message", view.User[0].Content)
}

func TestRead_ExcludesToolResultByName(t *testing.T) {
	assistantWithToolUse := `{"message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Read"}]}}`
	toolResultLine := `{"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"file contents"}]}}`

	path := writeTranscript(t, assistantWithToolUse, toolResultLine)

	view, err := Read(path, Spec{
		ToolResult:       RoleQuota{Count: 5},
		ExcludeToolNames: []string{"Read"},
	})
	require.NoError(t, err)
	require.Empty(t, view.ToolResult)
}

func TestRead_DropsHostInterruptions(t *testing.T) {
	assistantWithToolUse := `{"message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Bash"}]}}`
	interrupted := `{"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"The user doesn't want to take this action right now."}]}}`

	path := writeTranscript(t, assistantWithToolUse, interrupted)

	view, err := Read(path, Spec{
		ToolResult:            RoleQuota{Count: 5},
		DropHostInterruptions: true,
	})
	require.NoError(t, err)
	require.Empty(t, view.ToolResult)
}

func TestRead_IncludeFirstUserMessage(t *testing.T) {
	path := writeTranscript(t,
		userLine("the very first message"),
		assistantLine("ack"),
		userLine("a more recent message"),
	)

	view, err := Read(path, Spec{
		User:                    RoleQuota{Count: 1},
		IncludeFirstUserMessage: true,
	})
	require.NoError(t, err)
	require.Len(t, view.User, 2)

	contents := []string{view.User[0].Content, view.User[1].Content}
	require.Contains(t, contents, "the very first message")
	require.Contains(t, contents, "a more recent message")
}

func TestRead_DetectPlanApprovalSynthesizesMessage(t *testing.T) {
	assistantWithToolUse := `{"message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"ExitPlanMode"}]}}`
	approval := `{"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"tu_1","content":"User has approved the plan."}]}}`

	path := writeTranscript(t, assistantWithToolUse, approval)

	view, err := Read(path, Spec{
		ToolResult:         RoleQuota{Count: 5},
		User:               RoleQuota{Count: 5},
		DetectPlanApproval: true,
	})
	require.NoError(t, err)

	found := false
	for _, m := range view.User {
		if strings.Contains(m.Content, "approved the plan") {
			found = true
			require.Equal(t, lastIndex, m.Index)
		}
	}
	require.True(t, found, "expected a synthetic plan-approval user message")
}

func TestRead_SlashCommandMetadataSurvivesPromptDrop(t *testing.T) {
	prompt := "---\nname: review\ndescription: run a review\nallowed-tools: Read, Grep\n---\n/review please"
	path := writeTranscript(t, userLine(prompt))

	view, err := Read(path, Spec{
		User:                    RoleQuota{Count: 5},
		DetectSlashCommand:      true,
		DropSlashCommandPrompts: true,
	})
	require.NoError(t, err)
	require.Empty(t, view.User, "prompt body should be dropped")
	require.NotNil(t, view.SlashCommand)
	require.Equal(t, "review", view.SlashCommand.CommandName)
	require.Equal(t, "run a review", view.SlashCommand.Description)
	require.ElementsMatch(t, []string{"Read", "Grep"}, view.SlashCommand.AllowedTools)
}

func TestFormat_LinearizesByIndex(t *testing.T) {
	view := CollectedView{
		User:      []Message{{Role: "user", Content: "newest user", Index: 4}, {Role: "user", Content: "oldest user", Index: 0}},
		Assistant: []Message{{Role: "assistant", Content: "an answer", Index: 2}},
	}

	out := Format(view)
	lines := strings.Split(out, "\n")
	require.Equal(t, []string{
		"USER: oldest user",
		"ASSISTANT: an answer",
		"USER: newest user",
	}, lines)
}

func TestDetectErrorPattern(t *testing.T) {
	formatted := "USER: this is fine\nTOOL_RESULT: Error: build failed\nASSISTANT: ok"
	result := DetectErrorPattern(formatted)
	require.True(t, result.NeedsLLMCheck)
}

func TestDetectErrorPattern_FrustrationMarkerOnUserLine(t *testing.T) {
	formatted := "USER: I already told you to STOP doing that\nASSISTANT: sorry"
	result := DetectErrorPattern(formatted)
	require.True(t, result.NeedsLLMCheck)
}

func TestDetectErrorPattern_NoSignal(t *testing.T) {
	formatted := "USER: thanks\nASSISTANT: you're welcome\nTOOL_RESULT: build succeeded"
	result := DetectErrorPattern(formatted)
	require.False(t, result.NeedsLLMCheck)
}

func TestIsSubagentTranscript_ByFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent-sub1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(userLine("hi")+"\n"), 0o644))
	require.True(t, IsSubagentTranscript(path))
}

func TestIsSubagentTranscript_BySidechainField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	line := `{"isSidechain":true,"agentId":"sub-1","message":{"role":"user","content":"hi"}}`
	require.NoError(t, os.WriteFile(path, []byte(line+"\n"), 0o644))
	require.True(t, IsSubagentTranscript(path))
}

func TestIsSubagentTranscript_MainConversation(t *testing.T) {
	path := writeTranscript(t, userLine("hi"))
	require.False(t, IsSubagentTranscript(path))
}
