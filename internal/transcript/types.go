// Package transcript reads a host-owned JSONL conversation log and
// extracts a role-bounded, staleness-filtered view of it for the
// validator pipeline. The reader never writes to the transcript.
package transcript

import "math"

// Message is one collected transcript line, reduced to the parts a
// validator needs: who said it, what it says, and where it sits in the
// file (for later linearization).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// lastIndex is used for synthetic messages (e.g. the plan-approval
// stand-in) that must sort after every real entry when linearized.
const lastIndex = math.MaxInt32

// SlashCommandContext is the metadata block a slash-command system prompt
// carries in its YAML frontmatter. It survives every content filter so
// the appeal validator can still see it even after the prompt body that
// carried it has been dropped.
type SlashCommandContext struct {
	CommandName  string   `json:"commandName"`
	Description  string   `json:"description,omitempty"`
	AllowedTools []string `json:"allowedTools,omitempty"`
}

// RoleQuota states how many messages of a role to collect and how far
// back (in raw entries from the tail) the reader is allowed to look.
// MaxStale of zero means unbounded.
type RoleQuota struct {
	Count    int
	MaxStale int
}

// Spec configures one Read call.
type Spec struct {
	User       RoleQuota
	Assistant  RoleQuota
	ToolResult RoleQuota

	// ExcludeToolNames drops tool_result entries whose resolved tool_use_id
	// maps to one of these tool names.
	ExcludeToolNames []string

	// TrimToolOutput reduces tool_result text to error-like lines, or a
	// head/.../tail truncation when no error-like line is present.
	TrimToolOutput bool
	MaxToolOutputLines int

	// DropSystemReminders drops user content beginning with <system-reminder>.
	DropSystemReminders bool
	// DropSlashCommandPrompts drops user content that is a slash-command
	// system prompt body (metadata is still extracted if DetectSlashCommand).
	DropSlashCommandPrompts bool
	// DropHostInterruptions drops tool_result entries that are host-synthesized
	// interruption notices, not user speech.
	DropHostInterruptions bool

	// IncludeFirstUserMessage forward-scans from line 0 and prepends the
	// first surviving user message if the backward pass didn't reach it.
	IncludeFirstUserMessage bool
	// DetectSlashCommand extracts the most recent slash-command metadata
	// from user messages, regardless of whether the prompt body survives.
	DetectSlashCommand bool
	// DetectPlanApproval appends a synthetic "I approved the plan..." user
	// message when a collected tool-result shows an exit-plan-mode approval.
	DetectPlanApproval bool
}

// CollectedView is the reader's output: three role-bounded message lists
// plus whatever slash-command context was detected.
type CollectedView struct {
	User         []Message
	Assistant    []Message
	ToolResult   []Message
	SlashCommand *SlashCommandContext
}

// PlanApprovalSyntheticMessage is the exact text Read appends to User
// when DetectPlanApproval fires, so a caller can recognize it without
// re-deriving the detection logic.
const PlanApprovalSyntheticMessage = "I approved the plan. Proceed with implementation."

// SawPlanApproval reports whether Read detected and synthesized a
// plan-approval message in this view.
func (v CollectedView) SawPlanApproval() bool {
	for _, m := range v.User {
		if m.Content == PlanApprovalSyntheticMessage {
			return true
		}
	}
	return false
}
