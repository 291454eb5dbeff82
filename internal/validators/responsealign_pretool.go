package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
)

// ResponseAlignPreToolInput is what the pre-tool variant checks: does
// the assistant's very next action align with the last user message
// and whatever the assistant itself said right after it.
type ResponseAlignPreToolInput struct {
	IsSubagent       bool
	HasUserMessage   bool
	FreshAnswerFound bool // a fresh AskUserQuestion answer is present
	LastUserMessage  string
	AssistantPreamble string
	ToolName         string
	ToolInput        string
	AppealCtx        AppealContext
}

// ResponseAlignPreTool approves immediately for a subagent transcript,
// when there is no user message to align against, or when a fresh
// AskUserQuestion answer is present — in all three cases there is
// nothing to misalign with.
func ResponseAlignPreTool(ctx context.Context, cfg, appealCfg llm.Config, in ResponseAlignPreToolInput) (Decision, error) {
	if in.IsSubagent || !in.HasUserMessage || in.FreshAnswerFound {
		return Allow(), nil
	}

	prompt := fmt.Sprintf(
		"User asked: %s\nAssistant said before acting: %s\nAssistant is now calling %s with input %s\n\n"+
			"Does this action align with what the user asked, or did the assistant ask a "+
			"clarifying question and then act anyway, answer a question with a tool call "+
			"instead of text, or act on something unrelated? Respond OK or BLOCK: <reason>.",
		in.LastUserMessage, in.AssistantPreamble, in.ToolName, in.ToolInput,
	)

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isOKBlockFormatValid,
		"Respond with exactly OK or BLOCK: <reason>.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Deny(MalformedReason(result.Text)), nil
	}

	decision, ok := parseOKBlock(result.Text)
	if !ok {
		return Deny(MalformedReason(result.Text)), nil
	}
	if decision.Kind == KindAllow {
		return decision, nil
	}

	return runAppeal(ctx, appealCfg, in.AppealCtx, decision.Reason)
}
