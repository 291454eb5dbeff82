package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
)

// ToolApproveInput is the final gate before a tool call is allowed to
// execute.
type ToolApproveInput struct {
	ToolName            string
	ToolInput           string
	WorkDir             string
	ProjectRules        string
	BlacklistHighlights []string
	LazyMode            bool
	AppealCtx           AppealContext
}

// ToolApprove runs the last-resort policy check. In lazy mode, a
// command the blacklist found nothing to highlight in skips the LLM
// call entirely — the common case of an ordinary file edit or a safe
// shell command should never cost a round trip.
func ToolApprove(ctx context.Context, cfg, appealCfg llm.Config, in ToolApproveInput) (Decision, error) {
	if in.LazyMode && len(in.BlacklistHighlights) == 0 {
		return Allow(), nil
	}

	prompt := buildToolApprovePrompt(in)
	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isApproveDenyFormatValid,
		"Respond with exactly APPROVE or DENY: <reason>.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Deny(MalformedReason(result.Text)), nil
	}

	decision, ok := parseApproveDeny(result.Text)
	if !ok {
		return Deny(MalformedReason(result.Text)), nil
	}
	if decision.Kind == KindAllow {
		return decision, nil
	}

	return runAppeal(ctx, appealCfg, in.AppealCtx, decision.Reason)
}

func isApproveDenyFormatValid(text string) bool {
	_, ok := parseApproveDeny(text)
	return ok
}

func buildToolApprovePrompt(in ToolApproveInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s\nInput: %s\nWorking directory: %s\n", in.ToolName, in.ToolInput, in.WorkDir)
	if in.ProjectRules != "" {
		b.WriteString("\nProject rules:\n" + in.ProjectRules)
	}
	if len(in.BlacklistHighlights) > 0 {
		b.WriteString("\nFlagged patterns:\n" + strings.Join(in.BlacklistHighlights, "\n"))
	}
	b.WriteString("\n\nRespond APPROVE or DENY: <reason>.")
	return b.String()
}
