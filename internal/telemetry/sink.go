package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Entry is one decision worth reporting to an external sink, mirroring
// the fields internal/cache's StatuslineEntry already tracks so the two
// can share a logging call site.
type Entry struct {
	Agent         string    `json:"agent"`
	Decision      string    `json:"decision"`
	ToolName      string    `json:"toolName,omitempty"`
	ExecutionType string    `json:"executionType"`
	LatencyMs     int64     `json:"latencyMs"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"sessionId,omitempty"`
}

// Sink is the interface the core pipeline consumes for external decision
// logging, kept separate from the decision path itself so a webhook
// outage never affects a tool-call verdict.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// NoopSink discards every entry. The default when no webhook URL is
// configured.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Entry) error { return nil }

// WebhookSink POSTs each entry as JSON to a configured URL. Failures are
// swallowed by the caller (telemetry is never allowed to affect a
// decision); Record itself still returns the error so a caller can log
// it.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSinkFromEnv builds a WebhookSink from HOOKGATE_WEBHOOK_URL,
// or returns NoopSink if it's unset.
func NewWebhookSinkFromEnv() Sink {
	url := os.Getenv("HOOKGATE_WEBHOOK_URL")
	if url == "" {
		return NoopSink{}
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *WebhookSink) Record(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("telemetry: marshal entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("telemetry: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry: webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
