package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
)

// ClaudeMDValidateInput checks a write/edit to the project rules file.
type ClaudeMDValidateInput struct {
	NewContent string
	Transcript string
	AppealCtx  AppealContext
}

// ClaudeMDValidate runs the same conversation-alignment question as
// Plan-Validate but over the project rules file, with an APPROVE/DENY
// grammar and appeal path instead of OK/DRIFT — the rules file is
// policy, not a disposable plan, so a denial escalates the same way a
// tool-approve denial does.
func ClaudeMDValidate(ctx context.Context, cfg, appealCfg llm.Config, blacklist *patterns.Blacklist, in ClaudeMDValidateInput) (Decision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposed project rules content:\n%s\n\n", in.NewContent)
	if in.Transcript != "" {
		b.WriteString("Conversation:\n" + in.Transcript + "\n\n")
	}
	if blacklist != nil {
		b.WriteString("Disallowed command patterns (never recommend a workaround for these):\n" + blacklist.Describe() + "\n\n")
	}
	b.WriteString("Does this change align with what the conversation asked for, and does it avoid " +
		"introducing guidance that works around the command blacklist? Respond APPROVE or DENY: <reason>.")

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: b.String()}, isApproveDenyFormatValid,
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
