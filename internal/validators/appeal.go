package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/transcript"
)

// AppealInput is what Tool-Appeal reconsiders: a tool call another
// validator already denied, and the transcript context around it.
type AppealInput struct {
	ToolName     string
	ToolInput    string
	WorkDir      string
	DenialReason string
	Transcript   string
	SlashCmd     *transcript.SlashCommandContext
}

// ToolAppeal runs only after another validator has denied. The
// original denial is always technically correct on the facts it saw;
// an overturn fires only when the transcript shows the user explicitly
// requested the action — a matching slash command, or an answered
// AskUserQuestion naming the option. UPHOLD (in any spelling, including
// the legacy bare DENY) surfaces the ORIGINAL reason; OVERTURN: <reason>
// replaces it; OVERTURN: APPROVE allows.
func ToolAppeal(ctx context.Context, cfg llm.Config, in AppealInput) (Decision, error) {
	prompt := buildAppealPrompt(in)

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isAppealFormatValid,
		"Respond with exactly one of: UPHOLD, OVERTURN: APPROVE, or OVERTURN: <reason>.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Deny(in.DenialReason), nil
	}

	verdict, ok := parseAppealVerdict(result.Text)
	if !ok {
		return Deny(in.DenialReason), nil
	}
	if verdict.approve {
		return Allow(), nil
	}
	if verdict.overturn {
		return Deny(verdict.newReason), nil
	}
	return Deny(in.DenialReason), nil
}

func isAppealFormatValid(text string) bool {
	_, ok := parseAppealVerdict(text)
	return ok
}

func buildAppealPrompt(in AppealInput) string {
	prompt := fmt.Sprintf(
		"A tool call was denied. Tool: %s\nInput: %s\nDenial reason: %s\n\n"+
			"Decide whether the transcript shows the user explicitly requested this "+
			"action despite the denial (a matching slash command, or an answered "+
			"AskUserQuestion naming this option). If not, UPHOLD.",
		in.ToolName, in.ToolInput, in.DenialReason,
	)
	if in.SlashCmd != nil {
		prompt += fmt.Sprintf("\n\nActive slash command: %s (allowed tools: %v)", in.SlashCmd.CommandName, in.SlashCmd.AllowedTools)
	}
	if in.Transcript != "" {
		prompt += "\n\nTranscript:\n" + in.Transcript
	}
	return prompt
}
