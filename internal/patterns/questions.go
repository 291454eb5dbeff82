package patterns

import (
	"regexp"
	"strings"
)

// plainTextQuestionPatterns recognize an assistant reply that asks the
// user something in prose, when it should have used the structured
// question tool instead.
var plainTextQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\?\s*$`),
	regexp.MustCompile(`(?i)^(which|what|where|how|should|would|could|do you|did you|can you)\b`),
}

// IsPlainTextQuestion reports whether the last non-empty line of text
// reads as a question asked in plain prose.
func IsPlainTextQuestion(text string) bool {
	line := lastNonEmptyLine(text)
	if line == "" {
		return false
	}
	for _, p := range plainTextQuestionPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// planApprovalPromptPatterns recognize an assistant reply that lays out a
// plan in plain text and asks to proceed, the case that should have gone
// through the structured exit-plan-mode tool instead.
var planApprovalPromptPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)here'?s my plan`),
	regexp.MustCompile(`(?i)ready to proceed\??`),
	regexp.MustCompile(`(?i)shall I (proceed|go ahead|continue)\??`),
	regexp.MustCompile(`(?i)let me know if (this|that) (plan |)(looks good|works)`),
}

// IsPlanApprovalPrompt reports whether text reads as a plain-text
// plan-approval request.
func IsPlanApprovalPrompt(text string) bool {
	for _, p := range planApprovalPromptPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// acknowledgmentPrefixes are short non-answers: the assistant confirmed
// it heard the user but didn't actually answer.
var acknowledgmentPrefixes = []string{
	"i'll look into it", "i'll check", "looking into it", "got it",
	"sure,", "sure.", "ok,", "okay,", "understood", "noted", "will do",
	"on it", "let me check", "investigating",
}

// HasAcknowledgmentPrefix reports whether text starts with a pure
// acknowledgment phrase rather than an actual answer.
func HasAcknowledgmentPrefix(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range acknowledgmentPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

var questionWordPattern = regexp.MustCompile(`(?i)\b(why|what|how|when|where|which|who|can|could|should|would|is|are|do|does|did)\b`)

// ExtractQuestion strips quoted spans (to avoid matching a question
// embedded in quoted code or error text) and returns the first sentence
// that both ends in "?" and contains a question word, so a caller can
// hand a narrow excerpt to a confirmatory LLM check instead of the whole
// message.
func ExtractQuestion(text string) (string, bool) {
	stripped := stripQuoted(text)
	for _, sentence := range splitSentences(stripped) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" || !strings.HasSuffix(trimmed, "?") {
			continue
		}
		if questionWordPattern.MatchString(trimmed) {
			return trimmed, true
		}
	}
	return "", false
}

var quotedSpanPattern = regexp.MustCompile("(?s)`[^`]*`|\"[^\"]*\"|'[^']*'")

func stripQuoted(text string) string {
	return quotedSpanPattern.ReplaceAllString(text, "")
}

func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '?' || r == '.' || r == '\n' {
			sentences = append(sentences, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		sentences = append(sentences, cur.String())
	}
	return sentences
}

func lastNonEmptyLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
