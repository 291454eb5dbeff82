package pretool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
	"github.com/nextlevelbuilder/hookgate/internal/transcript"
	"github.com/nextlevelbuilder/hookgate/internal/validators"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

const strictModeEvery = 10

// ModelConfigs fixes the llm.Config each validator call uses. The
// orchestrator never picks a tier/mode itself — that's entirely
// policy configuration, loaded once at process start.
type ModelConfigs struct {
	ToolApprove      llm.Config
	ToolAppeal       llm.Config
	ErrorAcknowledge llm.Config
	ResponseAlign    llm.Config
	PlanValidate     llm.Config
	ClaudeMDValidate llm.Config
	StyleDrift       llm.Config
	QuestionValidate llm.Config
}

// Orchestrator runs the strict ordered pre-tool pipeline. One instance
// is built fresh per hook invocation (the process is the unit of
// isolation; nothing here is safe to share across hooks).
type Orchestrator struct {
	Models       ModelConfigs
	Blacklist    *patterns.Blacklist
	ContentRules *patterns.ContentRules
	StyleDetector *patterns.StyleDetector
	Trusted      TrustedFileCheck
	LazyMode     bool

	Registry *cache.Registry
	Ack      *cache.AckCache
	Denial   *cache.DenialCache
	Rewind   *cache.RewindCache
	Pending  *cache.PendingValidationCache
	Strict   *cache.StrictModeCache
}

// Run is the single entry point cmd/hook.go calls. It never returns a Go
// error for a policy decision — every failure mode in the pipeline
// itself resolves to a deny so the host never hangs; a Go error here
// means something unexpected happened reading the transcript or caches,
// which the caller turns into the generic "Hook error: …" deny.
func (o *Orchestrator) Run(ctx context.Context, in protocol.HookInput) protocol.HookOutput {
	out, err := o.run(ctx, in)
	if err != nil {
		return protocol.Deny(protocol.HookEventPreToolUse, fmt.Sprintf("Hook error: %s", err.Error()))
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, in protocol.HookInput) (protocol.HookOutput, error) {
	toolInputJSON, _ := json.Marshal(in.ToolInput)
	toolInputText := string(toolInputJSON)
	path := filePathFromToolInput(in.ToolInput)

	isSubagent := transcript.IsSubagentTranscript(in.TranscriptPath)

	// Step 1: trusted-file lazy path.
	if !isSubagent && FileTools[in.ToolName] && path != "" && o.Trusted.IsTrusted(path) {
		if decision, handled, err := o.lazyPath(ctx, in, path, toolInputText); err != nil {
			return protocol.HookOutput{}, err
		} else if handled {
			return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
		}
	}

	// Step 2: pending-validation gate, always consulted.
	view, err := o.readTranscript(in, transcript.Spec{
		User:               transcript.RoleQuota{Count: 1, MaxStale: 6},
		DetectSlashCommand: true,
		DropSystemReminders: true,
	})
	if err != nil {
		return protocol.HookOutput{}, err
	}
	formatted := transcript.Format(view)

	o.Rewind.SetSession(in.SessionID)
	if o.Rewind.DetectRewind(formatted) {
		_ = o.Registry.InvalidateAll()
	}

	if result, ok := o.Pending.Result(); ok {
		_ = o.Pending.Clear()
		if result.Status == cache.PendingStatusFailed {
			_ = o.Strict.ForceStrictNext()
			return protocol.Deny(protocol.HookEventPreToolUse,
				fmt.Sprintf("Previous %s had issues: %s", result.ToolName, result.Reason)), nil
		}
	}

	if len(view.User) == 0 {
		// Universal property: zero user messages in the transcript never
		// reaches an LLM.
		return protocol.Allow(protocol.HookEventPreToolUse), nil
	}
	lastUserMessage := view.User[len(view.User)-1].Content
	_, _ = o.Rewind.RecordUserMessage(lastUserMessage, view.User[len(view.User)-1].Index)

	// Step 3: low-risk allow-list.
	if IsLowRisk(in.ToolName) {
		_ = o.Rewind.MarkMessageCheckedByAgent("response-align", lastUserMessage)
		return protocol.Allow(protocol.HookEventPreToolUse), nil
	}

	appealCtx := validators.AppealContext{
		ToolName:   in.ToolName,
		ToolInput:  toolInputText,
		WorkDir:    in.Cwd,
		Transcript: formatted,
		SlashCmd:   view.SlashCommand,
	}

	// Step 4: AskUserQuestion special case.
	if in.ToolName == "AskUserQuestion" {
		question, _ := in.ToolInput["question"].(string)
		decision, err := validators.QuestionValidate(ctx, o.Models.QuestionValidate, o.Models.ToolAppeal, validators.QuestionValidateInput{
			Question:   question,
			Transcript: formatted,
			AppealCtx:  appealCtx,
		})
		if err != nil {
			return protocol.HookOutput{}, err
		}
		return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
	}

	// Step 5: session-level cache setup, already applied above via
	// SetSession; detect a recent plan-approval and reset on first sight.
	if view.SawPlanApproval() && !o.Rewind.FirstResponseChecked() {
		_ = o.Registry.InvalidateAll()
		_ = o.Rewind.SetFirstResponseChecked(true)
	}

	// Step 6: error-acknowledge.
	errScan := transcript.DetectErrorPattern(formatted)
	if errScan.NeedsLLMCheck && hasMinimumContext(view) && !o.Ack.IsAcknowledged(cache.HashText(lastUserMessage)) {
		decision, err := validators.ErrorAcknowledge(ctx, o.Models.ErrorAcknowledge, o.Models.ToolAppeal, validators.ErrorAcknowledgeInput{
			ToolName:          in.ToolName,
			ToolInput:         toolInputText,
			MatchedErrorLines: errScan.Matched,
			Transcript:        formatted,
			AppealCtx:         appealCtx,
		})
		if err != nil {
			return protocol.HookOutput{}, err
		}
		if decision.Kind == validators.KindAllow {
			_ = o.Ack.MarkAcknowledged(cache.HashText(lastUserMessage))
		} else {
			return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
		}
	}

	// Step 7: response-align.
	if !o.Rewind.IsMessageCheckedByAgent("response-align", lastUserMessage) {
		_ = o.Rewind.SetFirstResponseChecked(true)
		decision, err := validators.ResponseAlignPreTool(ctx, o.Models.ResponseAlign, o.Models.ToolAppeal, validators.ResponseAlignPreToolInput{
			IsSubagent:       isSubagent,
			HasUserMessage:   true,
			FreshAnswerFound: transcript.HasFreshUserAnswer(lastUserMessage),
			LastUserMessage:  lastUserMessage,
			ToolName:         in.ToolName,
			ToolInput:        toolInputText,
			AppealCtx:        appealCtx,
		})
		if err != nil {
			return protocol.HookOutput{}, err
		}
		_ = o.Rewind.MarkMessageCheckedByAgent("response-align", lastUserMessage)
		if decision.Kind != validators.KindAllow {
			return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
		}
	}

	// Step 8: path-based agents.
	if path != "" {
		if o.Trusted.isPlanFile(path) {
			decision, err := validators.PlanValidate(ctx, o.Models.PlanValidate, o.ContentRules, validators.PlanValidateInput{
				PlanContent: newContentFromToolInput(in.ToolInput),
				Transcript:  formatted,
			})
			if err != nil {
				return protocol.HookOutput{}, err
			}
			if decision.Kind != validators.KindAllow {
				return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
			}
		} else if o.Trusted.isRulesFile(path) {
			decision, err := validators.ClaudeMDValidate(ctx, o.Models.ClaudeMDValidate, o.Models.ToolAppeal, o.Blacklist, validators.ClaudeMDValidateInput{
				NewContent: newContentFromToolInput(in.ToolInput),
				Transcript: formatted,
				AppealCtx:  appealCtx,
			})
			if err != nil {
				return protocol.HookOutput{}, err
			}
			if decision.Kind != validators.KindAllow {
				return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
			}
		} else if in.ToolName == "Edit" && o.Trusted.IsTrusted(path) {
			decision, err := validators.StyleDrift(ctx, o.Models.StyleDrift, o.StyleDetector, validators.StyleDriftInput{
				OldContent: oldContentFromToolInput(in.ToolInput),
				NewContent: newContentFromToolInput(in.ToolInput),
			})
			if err != nil {
				return protocol.HookOutput{}, err
			}
			if decision.Kind != validators.KindAllow {
				return decisionToOutput(protocol.HookEventPreToolUse, decision), nil
			}
		}
	}

	// Step 9: exit-plan-mode gate.
	if in.ToolName == "ExitPlanMode" {
		if plan, _ := in.ToolInput["plan"].(string); plan == "" {
			return protocol.Deny(protocol.HookEventPreToolUse, "Cannot exit plan mode with an empty plan"), nil
		}
	}

	// Step 10: tool-approve.
	command := commandFromToolInput(in.ToolInput)
	highlights := o.Blacklist.Highlights(command)
	approveDecision, err := validators.ToolApprove(ctx, o.Models.ToolApprove, o.Models.ToolAppeal, validators.ToolApproveInput{
		ToolName:            in.ToolName,
		ToolInput:           toolInputText,
		WorkDir:             in.Cwd,
		BlacklistHighlights: highlights,
		LazyMode:            o.LazyMode,
		AppealCtx:           appealCtx,
	})
	if err != nil {
		return protocol.HookOutput{}, err
	}
	if approveDecision.Kind != validators.KindAllow {
		reason := approveDecision.Reason
		if category, ok := o.Blacklist.WorkaroundCategory(command); ok {
			count, _ := o.Denial.RecordDenial(category)
			if o.Denial.ShouldEscalate(category) {
				reason = fmt.Sprintf("%sYou have attempted %d similar workarounds for '%s'. %s",
					cache.EscalationPrefix, count, category, reason)
			}
		}
		return protocol.Deny(protocol.HookEventPreToolUse, reason), nil
	}

	// Step 11: accept.
	_ = o.Rewind.SetFirstResponseChecked(true)
	_ = o.Strict.RecordToolAccepted()
	return protocol.Allow(protocol.HookEventPreToolUse), nil
}

func (o *Orchestrator) lazyPath(ctx context.Context, in protocol.HookInput, path, toolInputText string) (protocol.HookOutput, bool, error) {
	o.Strict.SetSession(in.SessionID)
	o.Pending.SetSession(in.SessionID)

	if o.Rewind.FirstResponseChecked() && !o.Strict.ShouldForceStrict(strictModeEvery) {
		if result, ok := o.Pending.Result(); ok {
			_ = o.Pending.Clear()
			if result.Status == cache.PendingStatusFailed {
				_ = o.Strict.ForceStrictNext()
				return protocol.Deny(protocol.HookEventPreToolUse,
					fmt.Sprintf("Previous %s had issues: %s", result.ToolName, result.Reason)), true, nil
			}
		}

		req := BackgroundValidationRequest{
			SessionID:      in.SessionID,
			ToolName:       in.ToolName,
			ToolInput:      in.ToolInput,
			TranscriptPath: in.TranscriptPath,
			Cwd:            in.Cwd,
		}
		_ = SpawnBackgroundValidator(req, o.Pending)
		_ = o.Strict.RecordToolAccepted()
		return protocol.Allow(protocol.HookEventPreToolUse), true, nil
	}

	return protocol.HookOutput{}, false, nil
}

func (o *Orchestrator) readTranscript(in protocol.HookInput, spec transcript.Spec) (transcript.CollectedView, error) {
	spec.ToolResult.Count = 3
	spec.ToolResult.MaxStale = 12
	spec.Assistant.Count = 2
	spec.Assistant.MaxStale = 6
	spec.DropHostInterruptions = true
	spec.IncludeFirstUserMessage = false
	spec.DetectPlanApproval = true
	spec.TrimToolOutput = true
	spec.MaxToolOutputLines = 40
	return transcript.Read(in.TranscriptPath, spec)
}

func decisionToOutput(event protocol.HookEvent, d validators.Decision) protocol.HookOutput {
	if d.Kind == validators.KindAllow {
		return protocol.Allow(event)
	}
	return protocol.Deny(event, d.Reason)
}

func hasMinimumContext(view transcript.CollectedView) bool {
	return len(view.User) >= 1 && (len(view.Assistant) >= 1 || len(view.ToolResult) >= 1)
}

func filePathFromToolInput(input map[string]interface{}) string {
	if v, ok := input["file_path"].(string); ok {
		return v
	}
	if v, ok := input["path"].(string); ok {
		return v
	}
	return ""
}

func commandFromToolInput(input map[string]interface{}) string {
	if v, ok := input["command"].(string); ok {
		return v
	}
	return ""
}

func oldContentFromToolInput(input map[string]interface{}) string {
	if v, ok := input["old_string"].(string); ok {
		return v
	}
	return ""
}

func newContentFromToolInput(input map[string]interface{}) string {
	if v, ok := input["new_string"].(string); ok {
		return v
	}
	if v, ok := input["content"].(string); ok {
		return v
	}
	return ""
}
