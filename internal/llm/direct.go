package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultDirectModel = "claude-3-5-haiku-20241022"
	anthropicAPIBase   = "https://api.anthropic.com/v1"
	anthropicVersion   = "2023-06-01"
)

// directClient is the non-streaming, tool-free backend used for
// cheap/small-tier validators: one request, one response, no loop.
// Shaped as buildRequestBody / doRequest / parseResponse, trimmed to
// what a single-shot validator call needs.
type directClient struct {
	apiKey string
	model  string
	client *http.Client
}

func newDirectClient(model string) *directClient {
	if model == "" {
		model = defaultDirectModel
	}
	return &directClient{
		apiKey: os.Getenv("ANTHROPIC_API_KEY"),
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type directRequestBody struct {
	Model     string               `json:"model"`
	MaxTokens int                  `json:"max_tokens"`
	System    string               `json:"system,omitempty"`
	Messages  []directRequestMsg   `json:"messages"`
}

type directRequestMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type directResponseBody struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      map[string]interface{} `json:"usage"`
}

func (c *directClient) run(ctx context.Context, cfg Config, in Input) (Result, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	prompt := in.Prompt
	if in.Context != "" {
		prompt = prompt + "\n\n" + in.Context
	}

	body := directRequestBody{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    cfg.SystemPrompt,
		Messages:  []directRequestMsg{{Role: "user", Content: prompt}},
	}

	start := time.Now()
	resp, err := RetryDo(ctx, DefaultRetryConfig(), func() (*directResponseBody, error) {
		return c.doRequest(ctx, body)
	})
	latency := time.Since(start)

	if err != nil {
		return Result{
			Text:       DirectErrorPrefix + err.Error(),
			Latency:    latency,
			Tier:       cfg.Tier,
			Model:      c.model,
			Success:    false,
			ErrorCount: 1,
		}, nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return Result{
		Text:    text.String(),
		Latency: latency,
		Tier:    cfg.Tier,
		Model:   c.model,
		Success: true,
		Usage:   normalizeUsage(resp.Usage),
	}, nil
}

func (c *directClient) doRequest(ctx context.Context, body directRequestBody) (*directResponseBody, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("direct: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIBase+"/messages", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("direct: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("direct: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       string(respBody),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed directResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("direct: decode response: %w", err)
	}
	return &parsed, nil
}
