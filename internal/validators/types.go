// Package validators implements the policy-decision agents: thin glue
// layers around internal/llm with a strict output grammar each, plus
// the deterministic short-circuits and appeal wiring the pipeline in
// internal/pretool and internal/stophook depends on.
package validators

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/transcript"
)

// Kind is the outcome of a validator call.
type Kind string

const (
	KindAllow               Kind = "allow"
	KindDeny                Kind = "deny"
	KindContinue            Kind = "continue"
	KindSynthesizeFeedback  Kind = "synthesize_feedback"
)

// Decision is the result every validator returns after its own
// deterministic checks, LLM call, and (where the contract calls for
// it) appeal resolution have all run — never a bare LLM grammar token.
type Decision struct {
	Kind          Kind
	Reason        string
	SystemMessage string // only set for KindSynthesizeFeedback (stop-hook)
}

func Allow() Decision { return Decision{Kind: KindAllow} }

func Deny(reason string) Decision { return Decision{Kind: KindDeny, Reason: reason} }

func Continue() Decision { return Decision{Kind: KindContinue} }

func SynthesizeFeedback(msg string) Decision {
	return Decision{Kind: KindSynthesizeFeedback, SystemMessage: msg}
}

// MalformedReason formats the fallback reason every OK/BLOCK and
// APPROVE/DENY grammar falls back to once format-retries are exhausted.
func MalformedReason(raw string) string {
	return fmt.Sprintf("Malformed response: %s", truncate(raw, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AppealContext is everything Tool-Appeal needs to reconsider another
// validator's denial: the call that was denied, why, and what the
// transcript shows happened around it.
type AppealContext struct {
	ToolName    string
	ToolInput   string
	WorkDir     string
	Transcript  string
	SlashCmd    *transcript.SlashCommandContext
}

// runAppeal invokes Tool-Appeal over an original denial and folds its
// verdict back into a single final Decision: UPHOLD keeps the original
// reason, OVERTURN: APPROVE allows, OVERTURN: <reason> denies with the
// new reason, a bare legacy DENY defers to the original reason.
func runAppeal(ctx context.Context, cfg llm.Config, appealCtx AppealContext, originalReason string) (Decision, error) {
	return ToolAppeal(ctx, cfg, AppealInput{
		ToolName:       appealCtx.ToolName,
		ToolInput:      appealCtx.ToolInput,
		WorkDir:        appealCtx.WorkDir,
		DenialReason:   originalReason,
		Transcript:     appealCtx.Transcript,
		SlashCmd:       appealCtx.SlashCmd,
	})
}
