package transcript

import (
	"regexp"
	"strings"
)

// hostInterruptionPatterns catches host-synthesized notices that show up
// inside a tool_result block but are not user speech. Without this filter
// the response-align validators misattribute them to the user and block
// a correctly-behaving assistant. We take the strictest superset
// observed across revisions.
var hostInterruptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^The user doesn't want to take this action right now`),
	regexp.MustCompile(`(?i)STOP what you are doing and wait for the user`),
	regexp.MustCompile(`^\[Request interrupted by user`),
}

func isHostInterruption(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, p := range hostInterruptionPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func isSystemReminder(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<system-reminder>")
}

// slashCommandBodyPatterns recognize a slash-command's injected system
// prompt even without well-formed frontmatter.
var slashCommandBodyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)IMMEDIATELY call the mcp__`),
	regexp.MustCompile(`(?m)^allowed-tools:`),
}

var frontmatterFence = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n?`)

// parseFrontmatter extracts a YAML-ish frontmatter block delimited by
// leading/trailing "---" fences and returns the fields hookgate cares
// about, plus whatever text followed the fence.
func parseFrontmatter(text string) (fields map[string]string, body string, ok bool) {
	m := frontmatterFence.FindStringSubmatch(text)
	if m == nil {
		return nil, text, false
	}
	fields = map[string]string{}
	for _, line := range strings.Split(m[1], "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		fields[key] = val
	}
	body = text[len(m[0]):]
	return fields, body, true
}

// isSlashCommandPrompt reports whether user content is a slash-command's
// injected system prompt rather than something the user typed. Metadata
// extraction (extractSlashCommandContext) runs independently so the
// command name/allowed-tools survive even when the body itself is dropped.
func isSlashCommandPrompt(text string) bool {
	if fields, _, ok := parseFrontmatter(text); ok {
		if _, hasTools := fields["allowed-tools"]; hasTools {
			return true
		}
		if _, hasDesc := fields["description"]; hasDesc {
			return true
		}
	}
	for _, p := range slashCommandBodyPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var commandLinePattern = regexp.MustCompile(`(?m)^/([a-zA-Z0-9_-]+)`)

// extractSlashCommandContext pulls {commandName, description, allowedTools}
// out of a user message carrying slash-command frontmatter. It returns nil
// when the message carries none.
func extractSlashCommandContext(text string) *SlashCommandContext {
	fields, body, ok := parseFrontmatter(text)
	if !ok {
		return nil
	}
	_, hasTools := fields["allowed-tools"]
	_, hasDesc := fields["description"]
	if !hasTools && !hasDesc {
		return nil
	}

	ctx := &SlashCommandContext{Description: fields["description"]}
	if name, present := fields["name"]; present {
		ctx.CommandName = name
	} else if m := commandLinePattern.FindStringSubmatch(body); m != nil {
		ctx.CommandName = m[1]
	}
	if raw, present := fields["allowed-tools"]; present {
		raw = strings.Trim(raw, "[]")
		for _, tool := range strings.Split(raw, ",") {
			tool = strings.Trim(strings.TrimSpace(tool), `"'`)
			if tool != "" {
				ctx.AllowedTools = append(ctx.AllowedTools, tool)
			}
		}
	}
	return ctx
}

// errorLikePattern matches lines worth keeping when trimming a large
// tool_result down to its error-relevant content.
var errorLikePattern = regexp.MustCompile(`(?i)\b(error|exception|failed|denied|traceback)\b`)

// trimToolOutput reduces a tool_result's text to error-like lines; if none
// match, it truncates to a head/.../tail window instead of dropping the
// whole thing, so a validator can still see the shape of the output.
func trimToolOutput(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}

	var matched []string
	for _, l := range lines {
		if errorLikePattern.MatchString(l) {
			matched = append(matched, l)
		}
	}
	if len(matched) > 0 {
		if len(matched) > maxLines {
			matched = matched[:maxLines]
		}
		return strings.Join(matched, "\n")
	}

	half := maxLines / 2
	if half == 0 {
		half = 1
	}
	head := lines[:half]
	tail := lines[len(lines)-half:]
	return strings.Join(head, "\n") + "\n[…truncated…]\n" + strings.Join(tail, "\n")
}

// planApprovalMarkers detect a tool_result confirming the host's
// structured exit-plan-mode tool was approved by the user.
var planApprovalMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)user has approved`),
	regexp.MustCompile(`(?i)approved (the|your) plan`),
}

func mentionsPlanApproval(text string) bool {
	for _, p := range planApprovalMarkers {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// freshAnswerMarkers identify text carrying the user's answer to a
// structured AskUserQuestion prompt. The pre-tool pipeline uses a match
// only to short-circuit response-align; no cache is invalidated on it.
var freshAnswerMarkers = []string{
	"User answered",
	"answered Claude's questions",
	"→",
}

// HasFreshUserAnswer reports whether a tool_result's text marks a just
// answered AskUserQuestion.
func HasFreshUserAnswer(text string) bool {
	for _, m := range freshAnswerMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
