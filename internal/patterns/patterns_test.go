package patterns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlacklist_Highlights(t *testing.T) {
	b := NewBlacklist()

	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"file read", "cat package.json", "file-read"},
		{"recursive grep", "grep -rn foo .", "file-search"},
		{"cd chain", "cd /tmp && rm thing", "cd-chain"},
		{"git push", "git push origin main", "git-push"},
		{"manual typecheck", "tsc --noEmit", "manual-typecheck"},
		{"ssh", "ssh user@example.com", "ssh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			highlights := b.Highlights(tt.command)
			require.NotEmpty(t, highlights)
			found := false
			for _, h := range highlights {
				if containsFold(h, tt.want) {
					found = true
				}
			}
			require.True(t, found, "expected a highlight naming %q in %v", tt.want, highlights)
		})
	}
}

func TestBlacklist_NoHighlightsForOrdinaryCommand(t *testing.T) {
	b := NewBlacklist()
	require.Empty(t, b.Highlights("echo hello"))
}

func TestBlacklist_WorkaroundCategory(t *testing.T) {
	b := NewBlacklist()

	cat, ok := b.WorkaroundCategory("npx jest --runInBand")
	require.True(t, ok)
	require.Equal(t, "test", cat)

	_, ok = b.WorkaroundCategory("echo hello")
	require.False(t, ok)
}

func TestContentRules_DetectsTimeEstimatesAndTimeline(t *testing.T) {
	rules := NewContentRules()
	text := "Step 1: refactor the module\nEst. time: 4-6h\nWeek 2: ship to staging\nAll done."

	violations := rules.Check(text)
	require.Len(t, violations, 3)

	names := map[string]bool{}
	for _, v := range violations {
		names[v.Name] = true
	}
	require.True(t, names["estimate-header"])
	require.True(t, names["time-estimate"])
	require.True(t, names["timeline-marker"])
}

func TestContentRules_NoViolationsOnCleanPlan(t *testing.T) {
	rules := NewContentRules()
	text := "Add a retry wrapper around the HTTP client.\nCover it with a table-driven test."
	require.Empty(t, rules.Check(text))
}

func TestContentViolation_StringFormat(t *testing.T) {
	v := ContentViolation{Name: "time-estimate", Line: "Est. time: 2 days", Message: "drop it"}
	require.Equal(t, `[VIOLATION: time-estimate] "Est. time: 2 days" → drop it`, v.String())
}

func TestStyleDetector_QuoteDirectionChange(t *testing.T) {
	d := NewStyleDetector(StylePreference{QuoteStyle: "double"})

	findings := d.Compare(`const x = "hello"`, `const x = 'hello'`)
	require.Len(t, findings, 1)
	require.Equal(t, StyleFindingQuote, findings[0].Type)
	require.True(t, findings[0].Violating, "moving away from the double-quote preference should violate")
}

func TestStyleDetector_QuoteCleanupTowardPreferenceDoesNotViolate(t *testing.T) {
	d := NewStyleDetector(StylePreference{QuoteStyle: "double"})

	findings := d.Compare(`const x = 'hello'`, `const x = "hello"`)
	require.Len(t, findings, 1)
	require.False(t, findings[0].Violating)
}

func TestStyleDetector_NoChangeReportsNothing(t *testing.T) {
	d := NewStyleDetector(StylePreference{QuoteStyle: "double"})
	findings := d.Compare(`const x = "hello"`, `const x = "hello world"`)
	require.Empty(t, findings)
}

func TestStyleDetector_SemicolonAdded(t *testing.T) {
	d := NewStyleDetector(StylePreference{QuoteStyle: "double"})
	findings := d.Compare("const x = 1", "const x = 1;")
	require.Len(t, findings, 1)
	require.Equal(t, StyleFindingSemicolon, findings[0].Type)
	require.True(t, findings[0].Violating)
}

func TestDetectAddedEmoji(t *testing.T) {
	require.True(t, DetectAddedEmoji("done", "done 🎉"))
	require.False(t, DetectAddedEmoji("done 🎉", "done 🎉"))
	require.False(t, DetectAddedEmoji("done", "done"))
}

func TestIsUserDirectedQuestion(t *testing.T) {
	require.True(t, IsUserDirectedQuestion("Should I use Redis or Postgres here?"))
	require.True(t, IsUserDirectedQuestion("Would you like me to add tests too?"))
	require.False(t, IsUserDirectedQuestion("I wonder what this function does internally."))
}
