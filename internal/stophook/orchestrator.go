// Package stophook implements the Stop-event half of the pipeline: it
// looks at the assistant's final reply for a turn and catches the cases
// where the assistant should have used a structured tool (ask-user-question,
// exit-plan-mode) but answered in plain text instead, ignored earlier
// corrective feedback, or left a real question unanswered.
package stophook

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
	"github.com/nextlevelbuilder/hookgate/internal/transcript"
	"github.com/nextlevelbuilder/hookgate/internal/validators"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

// ModelConfigs fixes the llm.Config each stop-hook validator call uses.
type ModelConfigs struct {
	ResponseAlignStop llm.Config
	VerifyQuestion    llm.Config
}

// Orchestrator runs the stop-hook flow. One instance is built fresh
// per invocation, same lifetime discipline as the pre-tool orchestrator.
type Orchestrator struct {
	Models ModelConfigs
}

// acknowledgmentMaxLen is the length under which a reply starting with
// an acknowledgment prefix is treated as a non-answer rather than a
// short but complete one.
const acknowledgmentMaxLen = 50

// Run is the single entry point cmd/hook.go calls for the Stop event.
func (o *Orchestrator) Run(ctx context.Context, in protocol.HookInput) protocol.HookOutput {
	out, err := o.run(ctx, in)
	if err != nil {
		return protocol.Deny(protocol.HookEventStop, fmt.Sprintf("Hook error: %s", err.Error()))
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, in protocol.HookInput) (protocol.HookOutput, error) {
	if transcript.IsSubagentTranscript(in.TranscriptPath) {
		return protocol.Allow(protocol.HookEventStop), nil
	}

	view, err := transcript.Read(in.TranscriptPath, transcript.Spec{
		User:                    transcript.RoleQuota{Count: 1, MaxStale: 4},
		Assistant:               transcript.RoleQuota{Count: 1, MaxStale: 4},
		DropSystemReminders:     true,
		DropSlashCommandPrompts: true,
	})
	if err != nil {
		return protocol.HookOutput{}, err
	}

	if len(view.User) == 0 || len(view.Assistant) == 0 {
		return protocol.Allow(protocol.HookEventStop), nil
	}

	lastUser := view.User[len(view.User)-1]
	lastAssistant := view.Assistant[len(view.Assistant)-1]

	// The assistant's reply must be the most recent entry — if the last
	// user message came after it (mid-turn tool exchange still pending),
	// there is nothing to check yet.
	if lastUser.Index > lastAssistant.Index {
		return protocol.Allow(protocol.HookEventStop), nil
	}

	plainTextQuestionHint := patterns.IsPlainTextQuestion(lastAssistant.Content)
	planApprovalHint := patterns.IsPlanApprovalPrompt(lastAssistant.Content)
	userDirectedQuestion := patterns.IsUserDirectedQuestion(lastAssistant.Content)
	priorFeedbackMarker := strings.Contains(lastUser.Content, strings.TrimSpace(protocol.StopFeedbackPrefix))

	decision, err := validators.ResponseAlignStop(ctx, o.Models.ResponseAlignStop, validators.ResponseAlignStopInput{
		LastUserMessage:       lastUser.Content,
		LastAssistantMessage:  lastAssistant.Content,
		PlainTextQuestionHint: plainTextQuestionHint,
		PlanApprovalHint:      planApprovalHint,
		UserDirectedQuestion:  userDirectedQuestion,
		PriorFeedbackMarker:   priorFeedbackMarker,
	})
	if err != nil {
		return protocol.HookOutput{}, err
	}
	if decision.Kind == validators.KindSynthesizeFeedback {
		return protocol.DenyWithFeedback(protocol.HookEventStop, "stop-hook feedback", decision.SystemMessage), nil
	}

	// Independent check: did the user ask a real question that the
	// assistant brushed off with a bare acknowledgment?
	if question, ok := patterns.ExtractQuestion(lastUser.Content); ok &&
		len(lastAssistant.Content) < acknowledgmentMaxLen &&
		patterns.HasAcknowledgmentPrefix(lastAssistant.Content) {
		verdict, err := validators.VerifyUnansweredQuestion(ctx, o.Models.VerifyQuestion, question)
		if err != nil {
			return protocol.HookOutput{}, err
		}
		if verdict.Kind == validators.KindDeny {
			return protocol.DenyWithFeedback(protocol.HookEventStop, verdict.Reason,
				fmt.Sprintf("%sYou haven't answered: %q", protocol.StopFeedbackPrefix, question)), nil
		}
	}

	return protocol.Allow(protocol.HookEventStop), nil
}
