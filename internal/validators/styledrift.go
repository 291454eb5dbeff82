package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
)

// StyleDriftInput is an edit on a trusted path whose before/after text
// the fast paths can compare directly.
type StyleDriftInput struct {
	OldContent string
	NewContent string
}

// StyleDrift only runs for file-edit operations on trusted paths
// (internal/pretool enforces that gate). Most edits are decided without
// an LLM call: a pure insertion or pure deletion never drifts style by
// definition; an added emoji always denies; a quote change away from
// the configured preference always denies; a quote cleanup toward it
// always approves; no style-relevant change at all approves. Only a
// genuinely ambiguous diff reaches the model.
func StyleDrift(ctx context.Context, cfg llm.Config, detector *patterns.StyleDetector, in StyleDriftInput) (Decision, error) {
	if in.OldContent == "" || in.NewContent == "" {
		return Allow(), nil
	}
	if patterns.DetectAddedEmoji(in.OldContent, in.NewContent) {
		return Deny("emoji addition violates project style"), nil
	}

	findings := detector.Compare(in.OldContent, in.NewContent)
	if len(findings) == 0 {
		return Allow(), nil
	}

	var violating []patterns.StyleFinding
	for _, f := range findings {
		if f.Violating {
			violating = append(violating, f)
		}
	}
	if len(violating) == 0 {
		return Allow(), nil
	}

	for _, f := range violating {
		if f.Type == patterns.StyleFindingQuote {
			return Deny(fmt.Sprintf("quote change (%s) violates project preference", f.Detail)), nil
		}
	}

	var b strings.Builder
	b.WriteString("Style findings:\n")
	for _, f := range violating {
		fmt.Fprintf(&b, "- %s: %s\n", f.Type, f.Detail)
	}
	b.WriteString("\nIs this style change acceptable in context, or does it violate project style? " +
		"Respond OK or BLOCK: <reason>.")

	result, err := llm.RunAgentWithRetry(ctx, cfg, llm.Input{Prompt: b.String()}, isOKBlockFormatValid,
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
	return decision, nil
}
