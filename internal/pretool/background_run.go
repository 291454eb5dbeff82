package pretool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
	"github.com/nextlevelbuilder/hookgate/internal/transcript"
	"github.com/nextlevelbuilder/hookgate/internal/validators"
)

// RunBackgroundValidation is what the detached "async-validate" child
// actually runs: the same error-acknowledge, response-align, and
// style-drift checks the foreground lazy path skipped, against the tool
// call described by req. Its verdict is written by the caller into the
// session's pending-validation cache, never by this function directly,
// so a unit test can exercise it without a filesystem.
func RunBackgroundValidation(ctx context.Context, req BackgroundValidationRequest, models ModelConfigs, styleDetector *patterns.StyleDetector) cache.PendingValidation {
	toolInputJSON, _ := json.Marshal(req.ToolInput)
	toolInputText := string(toolInputJSON)

	view, err := transcript.Read(req.TranscriptPath, transcript.Spec{
		User:                  transcript.RoleQuota{Count: 1, MaxStale: 6},
		ToolResult:            transcript.RoleQuota{Count: 3, MaxStale: 12},
		DropSystemReminders:   true,
		DropHostInterruptions: true,
		TrimToolOutput:        true,
		MaxToolOutputLines:    40,
	})
	if err != nil {
		return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: fmt.Sprintf("transcript read: %v", err), ToolName: req.ToolName}
	}
	if len(view.User) == 0 {
		return cache.PendingValidation{Status: cache.PendingStatusOK, ToolName: req.ToolName}
	}

	formatted := transcript.Format(view)
	lastUserMessage := view.User[len(view.User)-1].Content

	appealCtx := validators.AppealContext{
		ToolName:   req.ToolName,
		ToolInput:  toolInputText,
		WorkDir:    req.Cwd,
		Transcript: formatted,
		SlashCmd:   view.SlashCommand,
	}

	errScan := transcript.DetectErrorPattern(formatted)
	if errScan.NeedsLLMCheck && hasMinimumContext(view) {
		decision, err := validators.ErrorAcknowledge(ctx, models.ErrorAcknowledge, models.ToolAppeal, validators.ErrorAcknowledgeInput{
			ToolName:          req.ToolName,
			ToolInput:         toolInputText,
			MatchedErrorLines: errScan.Matched,
			Transcript:        formatted,
			AppealCtx:         appealCtx,
		})
		if err != nil {
			return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: err.Error(), ToolName: req.ToolName}
		}
		if decision.Kind != validators.KindAllow {
			return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: decision.Reason, ToolName: req.ToolName}
		}
	}

	alignDecision, err := validators.ResponseAlignPreTool(ctx, models.ResponseAlign, models.ToolAppeal, validators.ResponseAlignPreToolInput{
		HasUserMessage:   true,
		FreshAnswerFound: transcript.HasFreshUserAnswer(lastUserMessage),
		LastUserMessage:  lastUserMessage,
		ToolName:         req.ToolName,
		ToolInput:        toolInputText,
		AppealCtx:        appealCtx,
	})
	if err != nil {
		return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: err.Error(), ToolName: req.ToolName}
	}
	if alignDecision.Kind != validators.KindAllow {
		return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: alignDecision.Reason, ToolName: req.ToolName}
	}

	if req.ToolName == "Edit" {
		oldContent := oldContentFromToolInput(req.ToolInput)
		newContent := newContentFromToolInput(req.ToolInput)
		if oldContent != "" || newContent != "" {
			driftDecision, err := validators.StyleDrift(ctx, models.StyleDrift, styleDetector, validators.StyleDriftInput{
				OldContent: oldContent,
				NewContent: newContent,
			})
			if err != nil {
				return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: err.Error(), ToolName: req.ToolName}
			}
			if driftDecision.Kind != validators.KindAllow {
				return cache.PendingValidation{Status: cache.PendingStatusFailed, Reason: driftDecision.Reason, ToolName: req.ToolName}
			}
		}
	}

	return cache.PendingValidation{Status: cache.PendingStatusOK, ToolName: req.ToolName}
}
