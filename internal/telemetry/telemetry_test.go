package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopSink_DiscardsSilently(t *testing.T) {
	var s NoopSink
	require.NoError(t, s.Record(context.Background(), Entry{Agent: "tool-approve"}))
}

func TestNewWebhookSinkFromEnv_ReturnsNoopWhenUnset(t *testing.T) {
	t.Setenv("HOOKGATE_WEBHOOK_URL", "")
	sink := NewWebhookSinkFromEnv()
	_, ok := sink.(NoopSink)
	require.True(t, ok)
}

func TestWebhookSink_PostsJSONEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := &WebhookSink{url: srv.URL, client: srv.Client()}
	err := sink.Record(context.Background(), Entry{
		Agent:     "response-align",
		Decision:  "deny",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
}

func TestWebhookSink_ReturnsErrorOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := &WebhookSink{url: srv.URL, client: srv.Client()}
	err := sink.Record(context.Background(), Entry{Agent: "x"})
	require.Error(t, err)
}

func TestNewMetrics_ConstructsWithoutPanicking(t *testing.T) {
	require.NotPanics(t, func() {
		NewMetrics()
	})
}
