package llm

import (
	"context"
	"os"
)

// RunAgent dispatches a validator's call to whichever backend its
// Config selects. A model-side failure (bad request, retries exhausted,
// turn budget exhausted) comes back as a successful Result with Success
// false and a prefixed Text, and so does a context cancellation — only
// a programming error (e.g. an unconvertible tool schema) surfaces as a
// Go error, so a caller can default-deny on Success == false without
// juggling two failure channels.
func RunAgent(ctx context.Context, cfg Config, in Input) (Result, error) {
	switch cfg.Mode {
	case ModeSDK:
		return newSDKClient(modelForTier(cfg.Tier, ModeSDK)).run(ctx, cfg, in)
	default:
		return newDirectClient(modelForTier(cfg.Tier, ModeDirect)).run(ctx, cfg, in)
	}
}

// RunAgentWithRetry re-runs the agent when its own output fails a
// caller-supplied format check (e.g. a validator whose grammar requires
// a leading "APPROVE"/"DENY" token), up to maxRetries extra attempts,
// appending formatReminder to the prompt each retry. It does not retry
// a transport-level Result failure (Success == false) — that already
// went through RetryDo internally and escalating further would just
// burn the hook's time budget.
func RunAgentWithRetry(ctx context.Context, cfg Config, in Input, formatValid func(string) bool, formatReminder string, maxRetries int) (Result, error) {
	result, err := RunAgent(ctx, cfg, in)
	if err != nil || !result.Success {
		return result, err
	}
	if formatValid == nil || formatValid(result.Text) {
		return result, nil
	}

	attempt := in
	for i := 0; i < maxRetries; i++ {
		attempt.Prompt = in.Prompt + "\n\n" + formatReminder
		result, err = RunAgent(ctx, cfg, attempt)
		if err != nil || !result.Success {
			return result, err
		}
		if formatValid(result.Text) {
			return result, nil
		}
	}
	return result, nil
}

func modelForTier(tier Tier, mode Mode) string {
	var envKey string
	switch {
	case tier == TierLarge && mode == ModeSDK:
		envKey = "HOOKGATE_MODEL_LARGE_SDK"
	case tier == TierLarge:
		envKey = "HOOKGATE_MODEL_LARGE"
	case mode == ModeSDK:
		envKey = "HOOKGATE_MODEL_SMALL_SDK"
	default:
		envKey = "HOOKGATE_MODEL_SMALL"
	}
	return os.Getenv(envKey)
}
