package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/hookgate/internal/config"
	"github.com/nextlevelbuilder/hookgate/internal/llm"
	"github.com/nextlevelbuilder/hookgate/internal/patterns"
	"github.com/nextlevelbuilder/hookgate/internal/pretool"
	"github.com/nextlevelbuilder/hookgate/internal/stophook"
	"github.com/nextlevelbuilder/hookgate/internal/telemetry"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

// stdinTimeout bounds how long a hook invocation waits on its own stdin
// read, independent of whatever larger budget the host enforces around
// the whole process.
const stdinTimeout = 30 * time.Second

// hookInputSchema rejects a malformed payload before it ever reaches
// json.Unmarshal into protocol.HookInput, so a host bug produces a
// clean "Hook error" deny instead of a zero-valued struct sailing
// through the pipeline.
var hookInputSchema = mustCompileSchema(`{
	"type": "object",
	"required": ["tool_name", "tool_input", "transcript_path", "cwd"],
	"properties": {
		"tool_name": {"type": "string"},
		"tool_input": {"type": "object"},
		"transcript_path": {"type": "string"},
		"cwd": {"type": "string"}
	}
}`)

func mustCompileSchema(schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("hook-input.json", strings.NewReader(schema)); err != nil {
		panic(err)
	}
	compiled, err := compiler.Compile("hook-input.json")
	if err != nil {
		panic(err)
	}
	return compiled
}

func preToolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pretool",
		Short: "Run the PreToolUse hook: read a tool call off stdin, emit an allow/deny decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(protocol.HookEventPreToolUse)
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Run the Stop hook: check the assistant's last reply for an unaddressed question or plan prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(protocol.HookEventStop)
		},
	}
}

func runHook(event protocol.HookEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), stdinTimeout)
	defer cancel()

	type readResult struct {
		in  protocol.HookInput
		err error
	}
	read := make(chan readResult, 1)
	go func() {
		in, err := readHookInput(os.Stdin)
		read <- readResult{in, err}
	}()
	var in protocol.HookInput
	var err error
	select {
	case r := <-read:
		in, err = r.in, r.err
	case <-ctx.Done():
		err = fmt.Errorf("stdin read timed out after %s", stdinTimeout)
	}
	if err != nil {
		writeOutput(protocol.Deny(event, fmt.Sprintf("Hook error: %s", err.Error())))
		os.Exit(1)
		return nil
	}
	in.HookEventName = event

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		writeOutput(protocol.Deny(event, fmt.Sprintf("Hook error: %s", err.Error())))
		os.Exit(1)
		return nil
	}
	snap := cfg.Snapshot()
	propagateModelConfig(snap)

	if in.SessionID == "" {
		// Host omitted a session id (standalone/test invocation) — mint one
		// so caches still scope correctly within this single process run.
		in.SessionID = uuid.NewString()
	}

	sink := telemetry.NewWebhookSinkFromEnv()
	start := time.Now()

	var out protocol.HookOutput
	switch event {
	case protocol.HookEventPreToolUse:
		out = runPreTool(ctx, snap, in)
	case protocol.HookEventStop:
		out = runStop(ctx, snap, in)
	default:
		out = protocol.Deny(event, fmt.Sprintf("Hook error: unknown hook event %q", event))
	}

	recordTelemetry(ctx, sink, snap, in, out, time.Since(start))
	writeOutput(out)
	return nil
}

func readHookInput(r io.Reader) (protocol.HookInput, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return protocol.HookInput{}, fmt.Errorf("read stdin: %w", err)
	}
	if len(raw) == 0 {
		return protocol.HookInput{}, fmt.Errorf("empty stdin")
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return protocol.HookInput{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := hookInputSchema.Validate(decoded); err != nil {
		return protocol.HookInput{}, fmt.Errorf("invalid hook payload: %w", err)
	}

	var in protocol.HookInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return protocol.HookInput{}, fmt.Errorf("decode hook payload: %w", err)
	}
	return in, nil
}

func writeOutput(out protocol.HookOutput) {
	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "hookgate: failed to write output: %v\n", err)
		os.Exit(1)
	}
}

func runPreTool(ctx context.Context, cfg config.Config, in protocol.HookInput) protocol.HookOutput {
	dir := cacheDir(cfg)
	registry, ack, denial, rewind, pending, strict := cacheRegistry(dir, in.SessionID)

	orch := &pretool.Orchestrator{
		Models:        preToolModelConfigs(cfg),
		Blacklist:     patterns.NewBlacklist(),
		ContentRules:  patterns.NewContentRules(),
		StyleDetector: styleDetectorFor(cfg),
		Trusted: pretool.TrustedFileCheck{
			ProjectRoot:   cfg.Project.Root,
			ConfigDir:     cfg.Project.ConfigDir,
			PlansDir:      cfg.Project.PlansDir,
			RulesFileName: cfg.Project.RulesFileName,
		},
		LazyMode: cfg.Policy.LazyMode,
		Registry: registry,
		Ack:      ack,
		Denial:   denial,
		Rewind:   rewind,
		Pending:  pending,
		Strict:   strict,
	}
	return orch.Run(ctx, in)
}

func runStop(ctx context.Context, cfg config.Config, in protocol.HookInput) protocol.HookOutput {
	orch := &stophook.Orchestrator{Models: stopModelConfigs(cfg)}
	return orch.Run(ctx, in)
}

func asyncValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "async-validate",
		Short:  "Internal: re-run the lazy path's deferred checks (spawned by the pretool hook, not invoked directly)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req pretool.BackgroundValidationRequest
			dec := json.NewDecoder(os.Stdin)
			if err := dec.Decode(&req); err != nil {
				return fmt.Errorf("decode background validation request: %w", err)
			}

			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			snap := cfg.Snapshot()
			propagateModelConfig(snap)

			dir := cacheDir(snap)
			pending := cachePendingOnly(dir, req.SessionID)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			result := pretool.RunBackgroundValidation(ctx, req, preToolModelConfigs(snap), styleDetectorFor(snap))
			return pending.SetResult(result)
		},
	}
}

func preToolModelConfigs(cfg config.Config) pretool.ModelConfigs {
	return pretool.ModelConfigs{
		ToolApprove:      llm.Config{Name: "tool-approve", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 256, SystemPrompt: toolApproveSystemPrompt},
		ToolAppeal:       llm.Config{Name: "tool-appeal", Tier: llm.TierLarge, Mode: llm.ModeDirect, MaxTokens: 512, SystemPrompt: toolAppealSystemPrompt},
		ErrorAcknowledge: llm.Config{Name: "error-acknowledge", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 256, SystemPrompt: errorAcknowledgeSystemPrompt},
		ResponseAlign:    llm.Config{Name: "response-align", Tier: llm.TierLarge, Mode: llm.ModeDirect, MaxTokens: 512, SystemPrompt: responseAlignSystemPrompt},
		PlanValidate:     llm.Config{Name: "plan-validate", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 256, SystemPrompt: planValidateSystemPrompt},
		ClaudeMDValidate: llm.Config{Name: "rules-file-validate", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 256, SystemPrompt: claudeMDValidateSystemPrompt},
		StyleDrift:       llm.Config{Name: "style-drift", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 200, SystemPrompt: styleDriftSystemPrompt},
		QuestionValidate: llm.Config{Name: "question-validate", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 256, SystemPrompt: questionValidateSystemPrompt},
	}
}

func stopModelConfigs(cfg config.Config) stophook.ModelConfigs {
	return stophook.ModelConfigs{
		ResponseAlignStop: llm.Config{Name: "response-align-stop", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 50, SystemPrompt: responseAlignStopSystemPrompt},
		VerifyQuestion:    llm.Config{Name: "verify-unanswered-question", Tier: llm.TierSmall, Mode: llm.ModeDirect, MaxTokens: 50, SystemPrompt: verifyQuestionSystemPrompt},
	}
}

func styleDetectorFor(cfg config.Config) *patterns.StyleDetector {
	quote := cfg.Project.QuoteStyle
	if quote == "" {
		quote = "double"
	}
	return patterns.NewStyleDetector(patterns.StylePreference{QuoteStyle: quote})
}

func cacheDir(cfg config.Config) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	dir, err := defaultCacheDir()
	if err != nil {
		return os.TempDir()
	}
	return dir
}

const (
	toolApproveSystemPrompt        = "You are the last-resort gate before a coding assistant's tool call executes. Respond with exactly APPROVE or DENY: <reason>."
	toolAppealSystemPrompt         = "You reconsider another validator's denial against the full conversation. Respond with exactly UPHOLD or OVERTURN: <reason>."
	errorAcknowledgeSystemPrompt   = "You check whether an assistant addressed a recent tool error before moving on. Respond with exactly OK or BLOCK: <reason>."
	responseAlignSystemPrompt      = "You check whether a tool call matches what the user actually asked for. Respond with exactly OK or BLOCK: <reason>."
	planValidateSystemPrompt       = "You check a plan file write against project content rules. Respond with exactly OK or DRIFT: <reason>."
	claudeMDValidateSystemPrompt   = "You check an edit to the project's rules file for disallowed content. Respond with exactly APPROVE or DENY: <reason>."
	styleDriftSystemPrompt         = "You check whether an edit drifts away from the project's configured style. Respond with exactly OK or BLOCK: <reason>."
	questionValidateSystemPrompt   = "You check whether an AskUserQuestion call is warranted given the conversation. Respond with exactly OK or BLOCK: <reason>."
	responseAlignStopSystemPrompt  = "You classify an assistant's final reply at turn end. Respond with exactly OK, QUESTION, PLAN_APPROVAL, or IGNORED_ERROR, optionally followed by feedback text."
	verifyQuestionSystemPrompt     = "You confirm whether an extracted fragment is truly an unanswered question, not a relative clause. Respond with exactly YES or NO."
)

// propagateModelConfig mirrors a config-file model override into the
// same env vars applyEnvOverrides reads them from, since internal/llm's
// runner resolves a tier/mode to a model ID by reading those vars
// directly rather than taking a Config. A value already set in the
// environment is left alone — it was the source applyEnvOverrides used
// in the first place.
func propagateModelConfig(cfg config.Config) {
	setIfEmpty := func(key, value string) {
		if value != "" && os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	setIfEmpty("HOOKGATE_MODEL_LARGE_SDK", cfg.Models.LargeSDK)
	setIfEmpty("HOOKGATE_MODEL_LARGE", cfg.Models.LargeDirect)
	setIfEmpty("HOOKGATE_MODEL_SMALL_SDK", cfg.Models.SmallSDK)
	setIfEmpty("HOOKGATE_MODEL_SMALL", cfg.Models.SmallDirect)
}

func recordTelemetry(ctx context.Context, sink telemetry.Sink, cfg config.Config, in protocol.HookInput, out protocol.HookOutput, latency time.Duration) {
	sharedMetrics().HookLatency.WithLabelValues(string(in.HookEventName)).Observe(latency.Seconds())

	_ = sink.Record(ctx, telemetry.Entry{
		Agent:         "hookgate",
		Decision:      string(out.HookSpecificOutput.PermissionDecision),
		ToolName:      in.ToolName,
		ExecutionType: "sync",
		LatencyMs:     latency.Milliseconds(),
		Timestamp:     time.Now(),
		SessionID:     in.SessionID,
	})

	dir := cacheDir(cfg)
	buf := cacheStatuslineOnly(dir, in.SessionID)
	_ = buf.Append(statuslineEntryFrom(in, out, latency))
}
