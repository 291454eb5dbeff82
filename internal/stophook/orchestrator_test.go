package stophook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_AllowsWhenNoAssistantMessageYet(t *testing.T) {
	path := writeTranscript(t, `{"message":{"role":"user","content":"hello"}}`)
	o := &Orchestrator{}
	out := o.Run(context.Background(), protocol.HookInput{
		HookEventName:  protocol.HookEventStop,
		TranscriptPath: path,
	})
	require.Equal(t, protocol.DecisionAllow, out.HookSpecificOutput.PermissionDecision)
}

func TestRun_AllowsOrdinaryReply(t *testing.T) {
	path := writeTranscript(t,
		`{"message":{"role":"user","content":"fix the typo in readme"}}`,
		`{"message":{"role":"assistant","content":"Fixed the typo in the readme file."}}`,
	)
	o := &Orchestrator{}
	out := o.Run(context.Background(), protocol.HookInput{
		HookEventName:  protocol.HookEventStop,
		TranscriptPath: path,
	})
	require.Equal(t, protocol.DecisionAllow, out.HookSpecificOutput.PermissionDecision)
}

func TestRun_SkipsSubagentTranscript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent-foo.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"message":{"role":"user","content":"hi"}}`+"\n"), 0o600))
	o := &Orchestrator{}
	out := o.Run(context.Background(), protocol.HookInput{
		HookEventName:  protocol.HookEventStop,
		TranscriptPath: path,
	})
	require.Equal(t, protocol.DecisionAllow, out.HookSpecificOutput.PermissionDecision)
}
