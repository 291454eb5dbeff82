// Package patterns holds the three small pure-function pattern libraries
// the validator agents lean on before ever calling an LLM: a command
// blacklist, content-rule violation detection, and a style-drift
// detector. None of them execute anything; hookgate never runs the
// tool calls it is asked to approve.
package patterns

import (
	"regexp"
	"strings"
)

// Rule is one blacklist entry: a command pattern, a human name, and the
// structured-tool alternative to suggest instead.
type Rule struct {
	Pattern     *regexp.Regexp
	Name        string
	Alternative string
}

// Blacklist flags shell-command patterns that should have used one of
// the host's structured tools instead. It is advisory: the sidecar never
// executes a tool call, so this only produces highlight strings injected
// into the tool-approve prompt — nothing here blocks the shell itself.
//
// Uses the same regex-table idiom a sandboxed exec tool would use for
// execution-time denial, reworked here into structured-tool-alternative
// guidance instead of a hard block.
type Blacklist struct {
	rules               []Rule
	workaroundCategories map[string][]string
}

// NewBlacklist builds the default rule set.
func NewBlacklist() *Blacklist {
	return &Blacklist{
		rules: []Rule{
			{regexp.MustCompile(`\b(cat|head|tail|less|more)\s+\S`), "file-read", "use the Read tool instead of a shell read command"},
			{regexp.MustCompile(`\bfind\s+\S.*-name\b`), "file-find", "use the Glob tool instead of find"},
			{regexp.MustCompile(`\bgrep\s+-[a-zA-Z]*r[a-zA-Z]*\b`), "file-search", "use the Grep tool instead of grep -r"},
			{regexp.MustCompile(`\bls\s+-[a-zA-Z]*R\b`), "file-list", "use the Glob tool instead of a recursive ls"},

			{regexp.MustCompile(`>>?\s*\S+\.\w+`), "redirect-write", "use the Write or Edit tool instead of shell redirection"},

			{regexp.MustCompile(`\bcd\s+\S+\s*&&`), "cd-chain", "pass an absolute path to the tool directly instead of cd && ..."},

			{regexp.MustCompile(`\bgit\s+push\b`), "git-push", "ask the user before pushing; this is not a read-only operation"},
			{regexp.MustCompile(`\bgit\s+(merge|rebase)\b`), "git-merge", "confirm with the user before merging or rebasing"},
			{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), "git-reset-hard", "confirm with the user before discarding local changes"},

			{regexp.MustCompile(`\b(tsc|mypy)\b`), "manual-typecheck", "use the project's configured type-check task instead of invoking the compiler directly"},
			{regexp.MustCompile(`\b(eslint|golangci-lint|ruff|flake8)\b`), "manual-lint", "use the project's configured lint task instead of invoking the linter directly"},
			{regexp.MustCompile(`\b(pytest|jest|go\s+test)\b`), "manual-test", "use the project's configured test task instead of invoking the test runner directly"},
			{regexp.MustCompile(`\b(make|npm\s+run\s+build|go\s+build)\b`), "manual-build", "use the project's configured build task instead of invoking the build tool directly"},

			{regexp.MustCompile(`\bssh\b.*@`), "ssh", "the sidecar cannot verify remote actions; confirm with the user first"},

			{regexp.MustCompile(`\b(npm\s+start|npm\s+run\s+dev|yarn\s+dev|go\s+run\s+\S+\s*&|python\S*\s+manage\.py\s+runserver|.*\bwatch\b)`), "long-lived-run", "a long-lived process should be started by the user, not left running in the background by the assistant"},
		},
		workaroundCategories: map[string][]string{
			"type-check": {"tsc", "mypy", "type-check", "typecheck"},
			"build":      {"make", "go build", "npm run build", "yarn build"},
			"lint":       {"eslint", "golangci-lint", "ruff", "flake8", "lint"},
			"test":       {"pytest", "jest", "go test", "npm test", "npm run test"},
		},
	}
}

// Highlights returns one "[BLACKLIST: name] alternative" line per rule
// that matches command, in rule order.
func (b *Blacklist) Highlights(command string) []string {
	var out []string
	for _, r := range b.rules {
		if r.Pattern.MatchString(command) {
			out = append(out, "[BLACKLIST: "+r.Name+"] "+r.Alternative)
		}
	}
	return out
}

// Describe renders every rule's name and alternative as a static
// reference block, for prompts that need to warn a validator off
// suggesting a blacklisted workaround rather than highlight one
// specific command.
func (b *Blacklist) Describe() string {
	var out []string
	for _, r := range b.rules {
		out = append(out, "[BLACKLIST: "+r.Name+"] "+r.Alternative)
	}
	return strings.Join(out, "\n")
}

// WorkaroundCategory classifies command into one of the denial-counter
// categories (type-check, build, lint, test), if any substring matches.
// This grouping feeds DenialCache only; it never appears in an LLM
// prompt.
func (b *Blacklist) WorkaroundCategory(command string) (string, bool) {
	for category, substrs := range b.workaroundCategories {
		for _, s := range substrs {
			if containsFold(command, s) {
				return category, true
			}
		}
	}
	return "", false
}
