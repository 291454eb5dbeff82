package llm

import (
	"log/slog"
	"regexp"
	"strings"
)

// SanitizeOutput cleans a raw model response before it reaches a
// validator's output-grammar parser. Small/cheap models occasionally
// leak reasoning tags, garbled tool-call XML, or an echoed system
// prompt into the text channel instead of keeping it out of band; none
// of that should ever reach a `strings.HasPrefix(text, "APPROVE")`
// check.
func SanitizeOutput(content string) string {
	if content == "" {
		return content
	}
	original := content

	content = stripGarbledToolXML(content)
	if content == "" {
		return ""
	}
	content = stripDowngradedToolCallText(content)
	content = stripThinkingTags(content)
	content = stripFinalTags(content)
	content = stripEchoedSystemMessages(content)
	content = collapseConsecutiveDuplicateBlocks(content)
	content = stripLeadingBlankLines(content)
	content = strings.TrimSpace(content)

	if content != original {
		slog.Debug("sanitized validator output", "original_len", len(original), "cleaned_len", len(content))
	}
	return content
}

var garbledToolXMLPattern = regexp.MustCompile(
	`(?s)</?(?:function_calls?|functioninvoke|invoke|invfunction_calls|tool_call|tool_use|parameter|minimax:tool_call)[^>]*>`,
)

var garbledToolXMLBlockPattern = regexp.MustCompile(
	`(?s)<(?:function_calls?|tool_call|tool_use|minimax:tool_call)\b[^>]*>.*?</(?:function_calls?|tool_call|tool_use|minimax:tool_call)>`,
)

var garbledToolXMLIndicators = []string{
	"invfunction_calls", "functioninvoke", "<parameter name=", "</parameter",
	"<function_call", "<tool_call", "<tool_use", "<minimax:tool_call",
}

func stripGarbledToolXML(content string) string {
	lower := strings.ToLower(content)
	hasIndicator := false
	for _, ind := range garbledToolXMLIndicators {
		if strings.Contains(lower, strings.ToLower(ind)) {
			hasIndicator = true
			break
		}
	}
	if !hasIndicator {
		return content
	}
	cleaned := garbledToolXMLBlockPattern.ReplaceAllString(content, "")
	cleaned = strings.TrimSpace(garbledToolXMLPattern.ReplaceAllString(cleaned, ""))
	if cleaned == "" {
		slog.Warn("stripped entire validator response as garbled tool XML", "original_len", len(content))
	}
	return cleaned
}

func stripDowngradedToolCallText(content string) string {
	if !strings.Contains(content, "[Tool Call:") && !strings.Contains(content, "[Tool Result") {
		return content
	}
	lines := strings.Split(content, "\n")
	var result []string
	skipping := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[Tool Call:") || strings.HasPrefix(trimmed, "[Tool Result") {
			skipping = true
			continue
		}
		if skipping {
			if trimmed == "" || strings.HasPrefix(trimmed, "Arguments:") || strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "}") {
				continue
			}
			skipping = false
		}
		result = append(result, line)
	}
	return strings.TrimSpace(strings.Join(result, "\n"))
}

var thinkingTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think>.*?</think>`),
	regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?is)<thought>.*?</thought>`),
	regexp.MustCompile(`(?is)<antThinking>.*?</antThinking>`),
	regexp.MustCompile(`(?is)<antthinking>.*?</antthinking>`),
}

func stripThinkingTags(content string) string {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "<think") && !strings.Contains(lower, "<thought") && !strings.Contains(lower, "<antthinking") {
		return content
	}
	result := content
	for _, pat := range thinkingTagPatterns {
		result = pat.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}

var finalTagPattern = regexp.MustCompile(`(?i)<\s*/?\s*final\s*>`)

func stripFinalTags(content string) string {
	if !strings.Contains(strings.ToLower(content), "final") {
		return content
	}
	return finalTagPattern.ReplaceAllString(content, "")
}

func stripEchoedSystemMessages(content string) string {
	if !strings.Contains(content, "[System Message]") {
		return content
	}
	lines := strings.Split(content, "\n")
	var result []string
	skipping := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "[System Message]") {
			skipping = true
			continue
		}
		if skipping {
			if strings.TrimSpace(line) == "" {
				skipping = false
			}
			continue
		}
		result = append(result, line)
	}
	return strings.TrimSpace(strings.Join(result, "\n"))
}

func collapseConsecutiveDuplicateBlocks(content string) string {
	blocks := strings.Split(content, "\n\n")
	if len(blocks) <= 1 {
		return content
	}
	var result []string
	for i, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		if i > 0 && len(result) > 0 && trimmed == strings.TrimSpace(result[len(result)-1]) {
			continue
		}
		result = append(result, block)
	}
	return strings.Join(result, "\n\n")
}

var leadingBlankLinesPattern = regexp.MustCompile(`^(?:[ \t]*\r?\n)+`)

func stripLeadingBlankLines(content string) string {
	return leadingBlankLinesPattern.ReplaceAllString(content, "")
}
