package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
)

// QuestionValidateInput is the payload when the host itself requests
// the structured AskUserQuestion tool.
type QuestionValidateInput struct {
	Question       string
	Transcript     string
	PlanModeActive bool
	AppealCtx      AppealContext
}

// QuestionValidate verifies the question references content the user
// could actually have seen, has not already been answered earlier in
// the conversation, and does not itself violate workflow rules — most
// notably, asking an implementation question while still in plan mode,
// where only plan-shape questions belong.
func QuestionValidate(ctx context.Context, cfg, appealCfg llm.Config, in QuestionValidateInput) (Decision, error) {
	prompt := fmt.Sprintf(
		"The assistant wants to ask the user: %q\n\nVerify: does this question reference "+
			"content the user could have seen in the conversation, has it not already been "+
			"answered, and (if the conversation is currently in plan mode: %v) does it stick "+
			"to plan-shape questions rather than implementation detail? Respond OK or BLOCK: <reason>.",
		in.Question, in.PlanModeActive,
	)
	if in.Transcript != "" {
		prompt += "\n\nConversation:\n" + in.Transcript
	}

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
