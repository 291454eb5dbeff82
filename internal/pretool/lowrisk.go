package pretool

// FileTools is the set of tool names that operate on a file path
// directly, the ones the trusted-file lazy path and the path-based
// validators (plan/rules/style) key off of.
var FileTools = map[string]bool{
	"Read":         true,
	"Write":        true,
	"Edit":         true,
	"NotebookEdit": true,
}

// LowRiskTools never need an LLM call at all: read-only search, the todo
// list, reading a background task's output, and skill invocation.
// Read-only MCP resource tools are matched by name in IsLowRisk instead.
// AskUserQuestion and ExitPlanMode are not on the list; each has its own
// pipeline step.
var LowRiskTools = map[string]bool{
	"Glob":       true,
	"Grep":       true,
	"TodoWrite":  true,
	"TodoRead":   true,
	"BashOutput": true,
	"Skill":      true,
}

// IsLowRisk reports whether toolName is on the allow-list outright, or
// is a read-only MCP resource tool (mcp__*__list_resources /
// mcp__*__read_resource by the host's naming convention).
func IsLowRisk(toolName string) bool {
	if allowed, ok := LowRiskTools[toolName]; ok {
		return allowed
	}
	return isReadOnlyMCPResourceTool(toolName)
}

func isReadOnlyMCPResourceTool(toolName string) bool {
	if len(toolName) < len("mcp__") || toolName[:5] != "mcp__" {
		return false
	}
	return hasSuffix(toolName, "__list_resources") || hasSuffix(toolName, "__read_resource")
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
