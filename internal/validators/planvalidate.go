package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
)

// PlanValidateInput checks a write/edit to a plan file under the
// assistant's plans directory for alignment with conversation intent.
type PlanValidateInput struct {
	PlanContent string
	Transcript  string
}

// PlanValidate injects the content-rule violations the plan text trips
// (time estimates, estimate headers, timeline markers) alongside the
// usual alignment question, since both are symptoms the same policy
// cares about: a plan that drifted from what the user actually asked
// for tends to also over-specify effort and scheduling.
func PlanValidate(ctx context.Context, cfg llm.Config, contentRules *patterns.ContentRules, in PlanValidateInput) (Decision, error) {
	violations := contentRules.Check(in.PlanContent)

	var b strings.Builder
	fmt.Fprintf(&b, "Plan content:\n%s\n\n", in.PlanContent)
	if len(violations) > 0 {
		b.WriteString("Flagged lines:\n")
		for _, v := range violations {
			b.WriteString(v.String() + "\n")
		}
	}
	if in.Transcript != "" {
		b.WriteString("\nConversation:\n" + in.Transcript)
	}
	b.WriteString("\nDoes this plan align with what the conversation actually asked for, " +
		"and avoid time estimates or over-engineered scheduling? Respond OK or DRIFT: <reason>.")

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: b.String()}, isOKDriftFormatValid,
		"Respond with exactly OK or DRIFT: <reason>.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Deny(MalformedReason(result.Text)), nil
	}

	decision, ok := parseOKDrift(result.Text)
	if !ok {
		return Deny(MalformedReason(result.Text)), nil
	}
	return decision, nil
}

func isOKDriftFormatValid(text string) bool {
	_, ok := parseOKDrift(text)
	return ok
}
