package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

// StopCategory is the LLM classifier's verdict on why the assistant's
// final response might be unsatisfactory.
type StopCategory string

const (
	StopCategoryQuestion      StopCategory = "QUESTION"
	StopCategoryPlanApproval  StopCategory = "PLAN_APPROVAL"
	StopCategoryIgnoredError  StopCategory = "IGNORED_ERROR"
	StopCategoryOK            StopCategory = "OK"
)

// ResponseAlignStopInput carries the deterministic hints the
// orchestrator already computed (plain-text-question pattern match,
// plan-approval pattern match, user-directed-question detection, a
// prior stop-hook-feedback marker on the most recent user message) plus
// the raw text the classifier needs to see.
type ResponseAlignStopInput struct {
	LastUserMessage       string
	LastAssistantMessage  string
	PlainTextQuestionHint bool
	PlanApprovalHint      bool
	UserDirectedQuestion  bool
	PriorFeedbackMarker   bool
}

// ResponseAlignStop classifies the assistant's stop into one of the
// four categories and returns the corresponding decision. Neither hint
// firing nor a prior feedback marker present means nothing to check:
// the assistant's response stands as-is.
func ResponseAlignStop(ctx context.Context, cfg llm.Config, in ResponseAlignStopInput) (Decision, error) {
	if !in.PlainTextQuestionHint && !in.UserDirectedQuestion && !in.PlanApprovalHint && !in.PriorFeedbackMarker {
		return Continue(), nil
	}

	prompt := fmt.Sprintf(
		"User's last message: %s\nAssistant's last message: %s\n\n"+
			"Classify the assistant's response as exactly one of: QUESTION (it asked a "+
			"plain-text question that should have used the structured ask-user-question "+
			"tool), PLAN_APPROVAL (it described a plan and asked to proceed in plain text "+
			"instead of using the structured plan-exit tool), IGNORED_ERROR (it ignored "+
			"feedback from a prior turn), or OK.",
		in.LastUserMessage, in.LastAssistantMessage,
	)

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isStopCategoryValid,
		"Respond with exactly one of: QUESTION, PLAN_APPROVAL, IGNORED_ERROR, OK.", 2)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Continue(), nil
	}

	switch StopCategory(trimCategory(result.Text)) {
	case StopCategoryPlanApproval:
		return SynthesizeFeedback(protocol.StopFeedbackPrefix + "Use the structured plan-mode exit tool instead of describing the plan in plain text and asking to proceed."), nil
	case StopCategoryQuestion:
		return SynthesizeFeedback(fmt.Sprintf("%sUse the structured ask-user-question tool instead of a plain-text question: %q", protocol.StopFeedbackPrefix, in.LastAssistantMessage)), nil
	case StopCategoryIgnoredError:
		return SynthesizeFeedback(protocol.StopFeedbackPrefix + "Prior stop-hook feedback was not addressed."), nil
	default:
		return Continue(), nil
	}
}

func isStopCategoryValid(text string) bool {
	switch StopCategory(trimCategory(text)) {
	case StopCategoryQuestion, StopCategoryPlanApproval, StopCategoryIgnoredError, StopCategoryOK:
		return true
	default:
		return false
	}
}

func trimCategory(text string) string {
	for i, r := range text {
		if r == '\n' || r == ' ' {
			return text[:i]
		}
	}
	return text
}

// VerifyUnansweredQuestion is the second, narrower LLM call: when the
// user's last message contains what looks
// like a real question and the assistant's reply is under 50
// characters and starts with a pure acknowledgment, a second call
// confirms the extracted text is actually a question (guarding against
// a false positive on a relative clause like "handle what is being
// said"). On confirmation, the stop is blocked quoting the question.
func VerifyUnansweredQuestion(ctx context.Context, cfg llm.Config, extractedQuestion string) (Decision, error) {
	prompt := fmt.Sprintf(
		"Is the following text an actual question the user is asking, as opposed to a "+
			"relative clause or rhetorical aside? Text: %q\n\nRespond YES or NO.",
		extractedQuestion,
	)
	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: prompt}, isYesNoValid,
		"Respond with exactly YES or NO.", 1)
	if err != nil {
		return Decision{}, err
	}
	if !result.Success {
		return Continue(), nil
	}
	if trimCategory(result.Text) == "YES" {
		return Deny("User question not answered"), nil
	}
	return Continue(), nil
}

func isYesNoValid(text string) bool {
	t := trimCategory(text)
	return t == "YES" || t == "NO"
}
