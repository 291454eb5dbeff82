package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
)

// ErrorAcknowledgeInput carries the deterministic preflight results the
// orchestrator already computed (the error-pattern pre-filter, the
// minimum-context check, the already-acknowledged hash) plus what the
// validator itself
// needs to build its prompt and, on BLOCK, its appeal.
type ErrorAcknowledgeInput struct {
	ToolName           string
	ToolInput          string
	MatchedErrorLines  []string
	Transcript         string
	AppealCtx          AppealContext
}

// ErrorAcknowledge fires only when the caller has already confirmed the
// deterministic error-pattern scan matched, the transcript carries
// enough context, and the current user message isn't already marked
// acknowledged — all three gates live in internal/pretool, not here,
// since they depend on cache/transcript state this package doesn't own.
// Neither side checks whether the tool call is the alternative the
// error itself suggested.
func ErrorAcknowledge(ctx context.Context, cfg, appealCfg llm.Config, in ErrorAcknowledgeInput) (Decision, error) {
	prompt := fmt.Sprintf(
		"Recent tool output shows an error:\n%s\n\nThe assistant is now calling %s with input %s.\n"+
			"Has the assistant actually acknowledged and addressed this error, rather than "+
			"retrying the same broken approach? Respond OK or BLOCK: <reason>.",
		joinLines(in.MatchedErrorLines), in.ToolName, in.ToolInput,
	)
	if in.Transcript != "" {
		prompt += "\n\nTranscript:\n" + in.Transcript
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

func isOKBlockFormatValid(text string) bool {
	_, ok := parseOKBlock(text)
	return ok
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
