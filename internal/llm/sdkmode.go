package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultSDKModel = "claude-sonnet-4-5-20250929"

const defaultMaxTurns = 6

// sdkClient drives a bounded multi-turn tool loop against the official
// SDK: the model reads files under the validator's working directory
// (Read/Glob/Grep, plus whatever Config.ExtraTools contributes) until
// it answers in plain text or the turn budget runs out. Grounded on
// the call shape used elsewhere in the pack's anthropic-sdk-go
// integration — NewClient/MessageNewParams/NewStreaming's non-
// streaming sibling, NewUserMessage/NewToolResultBlock for feeding
// results back — adapted from a request/response loop into the
// read-only turn loop a validator needs.
type sdkClient struct {
	client anthropic.Client
	model  string
}

func newSDKClient(model string) *sdkClient {
	if model == "" {
		model = defaultSDKModel
	}
	return &sdkClient{
		client: anthropic.NewClient(option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY"))),
		model:  model,
	}
}

func (c *sdkClient) run(ctx context.Context, cfg Config, in Input) (Result, error) {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	tools := builtinReadOnlyTools(cfg.WorkDir)
	tools = append(tools, cfg.ExtraTools...)
	toolParams, err := convertTools(tools)
	if err != nil {
		return Result{}, fmt.Errorf("sdk mode: convert tools: %w", err)
	}

	prompt := in.Prompt
	if in.Context != "" {
		prompt = prompt + "\n\n" + in.Context
	}

	messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}

	start := time.Now()
	var usage *Usage
	var generationIDs []string

	for turn := 0; turn < maxTurns; turn++ {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: maxTokens,
			Messages:  messages,
			Tools:     toolParams,
		}
		if cfg.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: cfg.SystemPrompt}}
		}

		msg, err := RetryDo(ctx, DefaultRetryConfig(), func() (*anthropic.Message, error) {
			return c.client.Messages.New(ctx, params)
		})
		if err != nil {
			return Result{
				Text:       SDKErrorPrefix + err.Error(),
				Latency:    time.Since(start),
				Tier:       cfg.Tier,
				Model:      c.model,
				Success:    false,
				ErrorCount: 1,
				Usage:      usage,
			}, nil
		}

		if msg.ID != "" {
			generationIDs = append(generationIDs, msg.ID)
		}
		usage = mergeUsage(usage, messageUsage(msg))

		var text strings.Builder
		var toolUses []anthropic.ContentBlockUnion
		for _, block := range msg.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				text.WriteString(variant.Text)
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, block)
			}
		}

		if msg.StopReason != anthropic.StopReasonToolUse || len(toolUses) == 0 {
			return Result{
				Text:         text.String(),
				Latency:      time.Since(start),
				Tier:         cfg.Tier,
				Model:        c.model,
				Success:      true,
				Usage:        usage,
				GenerationID: strings.Join(generationIDs, ","),
			}, nil
		}

		messages = append(messages, msg.ToParam())
		var results []anthropic.ContentBlockParamUnion
		for _, block := range toolUses {
			use := block.AsAny().(anthropic.ToolUseBlock)
			output, err := dispatchTool(tools, use.Name, use.Input)
			if err != nil {
				output = []byte(fmt.Sprintf("error: %s", err.Error()))
			}
			results = append(results, anthropic.NewToolResultBlock(use.ID, string(output), err != nil))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	return Result{
		Text:         SDKErrorPrefix + "turn budget exhausted without a final answer",
		Latency:      time.Since(start),
		Tier:         cfg.Tier,
		Model:        c.model,
		Success:      false,
		ErrorCount:   1,
		Usage:        usage,
		GenerationID: strings.Join(generationIDs, ","),
	}, nil
}

func messageUsage(msg *anthropic.Message) *Usage {
	raw := map[string]interface{}{
		"input_tokens":             float64(msg.Usage.InputTokens),
		"output_tokens":            float64(msg.Usage.OutputTokens),
		"cache_read_input_tokens":  float64(msg.Usage.CacheReadInputTokens),
	}
	return normalizeUsage(raw)
}

func convertTools(tools []Tool) ([]anthropic.ToolUnionParam, error) {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schemaBytes, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for tool %s: %w", t.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(schemaBytes, &schema); err != nil {
			return nil, fmt.Errorf("decode schema for tool %s: %w", t.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		toolParam.OfTool.Description = anthropic.String(t.Description)
		params = append(params, toolParam)
	}
	return params, nil
}

func dispatchTool(tools []Tool, name string, rawInput json.RawMessage) ([]byte, error) {
	for _, t := range tools {
		if t.Name != name {
			continue
		}
		var input map[string]interface{}
		if len(rawInput) > 0 {
			if err := json.Unmarshal(rawInput, &input); err != nil {
				return nil, fmt.Errorf("decode input: %w", err)
			}
		}
		out, err := t.Handler(input)
		return []byte(out), err
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}
