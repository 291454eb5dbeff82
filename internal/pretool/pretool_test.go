package pretool

import (
	"testing"

	"github.com/nextlevelbuilder/hookgate/internal/validators"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
	"github.com/stretchr/testify/require"
)

func TestIsLowRisk(t *testing.T) {
	require.True(t, IsLowRisk("Glob"))
	require.True(t, IsLowRisk("mcp__github__list_resources"))
	require.True(t, IsLowRisk("mcp__github__read_resource"))
	require.False(t, IsLowRisk("AskUserQuestion"))
	require.False(t, IsLowRisk("Bash"))
	require.False(t, IsLowRisk("ExitPlanMode"))
}

func TestTrustedFileCheck_RejectsSensitivePaths(t *testing.T) {
	check := TrustedFileCheck{ProjectRoot: "/home/user/project"}
	require.False(t, check.IsTrusted("/home/user/project/.env"))
	require.False(t, check.IsTrusted("/home/user/project/config/credentials.json"))
	require.False(t, check.IsTrusted("/home/user/project/.ssh/id_rsa"))
}

func TestTrustedFileCheck_RejectsPlanAndRulesFiles(t *testing.T) {
	check := TrustedFileCheck{
		ProjectRoot:   "/home/user/project",
		PlansDir:      "/home/user/project/.claude/plans",
		RulesFileName: "CLAUDE.md",
	}
	require.False(t, check.IsTrusted("/home/user/project/.claude/plans/feature.md"))
	require.False(t, check.IsTrusted("/home/user/project/CLAUDE.md"))
}

func TestTrustedFileCheck_AcceptsOrdinaryProjectFile(t *testing.T) {
	check := TrustedFileCheck{ProjectRoot: "/home/user/project"}
	require.True(t, check.IsTrusted("/home/user/project/internal/foo.go"))
}

func TestTrustedFileCheck_RejectsPathOutsideProjectAndConfig(t *testing.T) {
	check := TrustedFileCheck{ProjectRoot: "/home/user/project", ConfigDir: "/home/user/.claude"}
	require.False(t, check.IsTrusted("/etc/passwd"))
	require.True(t, check.IsTrusted("/home/user/.claude/settings.json"))
}

func TestDecisionToOutput_Allow(t *testing.T) {
	out := decisionToOutput(protocol.HookEventPreToolUse, validators.Allow())
	require.Equal(t, protocol.DecisionAllow, out.HookSpecificOutput.PermissionDecision)
}

func TestDecisionToOutput_Deny(t *testing.T) {
	out := decisionToOutput(protocol.HookEventPreToolUse, validators.Deny("destructive"))
	require.Equal(t, protocol.DecisionDeny, out.HookSpecificOutput.PermissionDecision)
	require.Equal(t, "destructive", out.HookSpecificOutput.PermissionDecisionReason)
}

func TestFilePathFromToolInput(t *testing.T) {
	require.Equal(t, "/a/b.go", filePathFromToolInput(map[string]interface{}{"file_path": "/a/b.go"}))
	require.Equal(t, "", filePathFromToolInput(map[string]interface{}{}))
}

func TestCommandFromToolInput(t *testing.T) {
	require.Equal(t, "ls -la", commandFromToolInput(map[string]interface{}{"command": "ls -la"}))
}
