// Package protocol defines the wire contract between the host (the AI
// coding assistant) and the hookgate sidecar: one JSON object on stdin,
// one JSON object on stdout, per hook invocation.
package protocol

// ProtocolVersion is bumped whenever the stdin/stdout shape changes in a
// way a host needs to branch on.
const ProtocolVersion = 1

// HookEvent names the lifecycle event that triggered this invocation.
type HookEvent string

const (
	HookEventPreToolUse HookEvent = "PreToolUse"
	HookEventStop       HookEvent = "Stop"
)

// Decision is the sidecar's permission verdict.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// HookInput is the JSON object the host writes to stdin. Field names
// match the host's wire format, not Go convention.
type HookInput struct {
	HookEventName HookEvent              `json:"hook_event_name"`
	ToolName      string                 `json:"tool_name"`
	ToolInput     map[string]interface{} `json:"tool_input"`
	TranscriptPath string                `json:"transcript_path"`
	Cwd           string                 `json:"cwd"`
	SessionID     string                 `json:"session_id,omitempty"`
}

// HookOutput is the JSON object written to stdout. `SystemMessage` is
// only populated for Stop-variant denials.
type HookOutput struct {
	HookSpecificOutput HookSpecificOutput `json:"hookSpecificOutput"`
	SystemMessage      string             `json:"systemMessage,omitempty"`
}

// HookSpecificOutput carries the actual decision.
type HookSpecificOutput struct {
	HookEventName            HookEvent `json:"hookEventName"`
	PermissionDecision        Decision  `json:"permissionDecision"`
	PermissionDecisionReason string    `json:"permissionDecisionReason,omitempty"`
}

// Allow builds the stdout payload for an unconditional approval.
func Allow(event HookEvent) HookOutput {
	return HookOutput{
		HookSpecificOutput: HookSpecificOutput{
			HookEventName:      event,
			PermissionDecision: DecisionAllow,
		},
	}
}

// Deny builds the stdout payload for a denial with a machine-readable reason.
func Deny(event HookEvent, reason string) HookOutput {
	return HookOutput{
		HookSpecificOutput: HookSpecificOutput{
			HookEventName:            event,
			PermissionDecision:       DecisionDeny,
			PermissionDecisionReason: reason,
		},
	}
}

// DenyWithFeedback is Deny plus a systemMessage the host re-injects to the
// assistant; used by the Stop-hook orchestrator.
func DenyWithFeedback(event HookEvent, reason, systemMessage string) HookOutput {
	out := Deny(event, reason)
	out.SystemMessage = systemMessage
	return out
}

// StopFeedbackPrefix tags every stop-hook corrective message so the host
// (and the assistant) can tell it apart from real user speech.
const StopFeedbackPrefix = "[AUTOGENERATED STOP HOOK FEEDBACK] "
