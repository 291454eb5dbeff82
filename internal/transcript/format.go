package transcript

import (
	"sort"
	"strings"
)

func rolePrefix(role string) string {
	switch role {
	case "user":
		return "USER"
	case "assistant":
		return "ASSISTANT"
	case "toolResult":
		return "TOOL_RESULT"
	default:
		return strings.ToUpper(role)
	}
}

// Format linearizes a CollectedView by Index ascending, regardless of the
// newest-first order the messages were collected in, and renders one
// "ROLE: content" line per message. This is the shape a validator prompt
// or a regex pre-filter operates on.
func Format(view CollectedView) string {
	all := make([]Message, 0, len(view.User)+len(view.Assistant)+len(view.ToolResult))
	all = append(all, view.User...)
	all = append(all, view.Assistant...)
	all = append(all, view.ToolResult...)

	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })

	var sb strings.Builder
	for i, m := range all {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(rolePrefix(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
