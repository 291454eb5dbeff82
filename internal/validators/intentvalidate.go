package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
)

// IntentValidateInput compares the assistant's final response against
// the whole of the user's history in the conversation, to catch a
// response that has drifted off-topic over a long multi-turn session.
type IntentValidateInput struct {
	LastAssistantMessage string
	UserHistory          string
}

// IntentValidate runs at stop time. Unlike Response-Align, which checks
// one action against one recent message, this checks the final answer
// against everything the user has asked across the whole conversation.
func IntentValidate(ctx context.Context, cfg llm.Config, in IntentValidateInput) (Decision, error) {
	prompt := fmt.Sprintf(
		"Full user history in this conversation:\n%s\n\nAssistant's final response:\n%s\n\n"+
			"Does the final response stay on topic with what the user has actually asked for "+
			"across the conversation, or has it drifted to something else? Respond OK or "+
			"INTERVENE: <feedback>.",
		in.UserHistory, in.LastAssistantMessage,
	)

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isOKIntervene, "Respond with exactly OK or INTERVENE: <feedback>.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Continue(), nil
	}

	decision, ok := parseOKIntervene(result.Text)
	if !ok {
		return Continue(), nil
	}
	return decision, nil
}

func parseOKIntervene(text string) (Decision, bool) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "OK":
		return Continue(), true
	case hasPrefixFold(trimmed, "INTERVENE:"):
		return SynthesizeFeedback(trimmed[len("INTERVENE:"):]), true
	default:
		return Decision{}, false
	}
}

func isOKIntervene(text string) bool {
	_, ok := parseOKIntervene(text)
	return ok
}
