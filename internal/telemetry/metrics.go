// Package telemetry carries the ambient observability stack the
// pipeline itself needs — per-validator latency/decision counters and
// an optional webhook fan-out — without the core pipeline depending on
// any of it to make a decision.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram NewMetrics registers. Only
// HookLatency is observed anywhere (by cmd's recordTelemetry); the others
// are registered and stay at zero. A host that chooses to expose a
// `/metrics` endpoint gets them for free; the sidecar itself never binds
// a socket.
type Metrics struct {
	// ValidatorInvocations counts each validator call by name and
	// outcome. Labels: validator, decision (allow|deny|continue|synthesize_feedback).
	ValidatorInvocations *prometheus.CounterVec

	// ValidatorDuration measures wall-clock latency of one validator
	// call, including any retries. Labels: validator.
	ValidatorDuration *prometheus.HistogramVec

	// AppealInvocations counts Tool-Appeal outcomes. Labels: verdict
	// (uphold|overturn).
	AppealInvocations *prometheus.CounterVec

	// DenialEscalations counts denials that crossed the escalation
	// threshold. Labels: category.
	DenialEscalations *prometheus.CounterVec

	// LazyPathDecisions counts trusted-file lazy-path outcomes. Labels:
	// outcome (allowed|forced_strict|pending_denied).
	LazyPathDecisions *prometheus.CounterVec

	// BackgroundValidatorFailures counts failures to spawn or complete
	// the detached async validator.
	BackgroundValidatorFailures prometheus.Counter

	// HookLatency measures end-to-end hook invocation latency from
	// stdin read to stdout write. Labels: event (PreToolUse|Stop).
	HookLatency *prometheus.HistogramVec
}

// NewMetrics constructs and registers every metric with the default
// Prometheus registry. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		ValidatorInvocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookgate_validator_invocations_total",
				Help: "Total validator calls by name and resulting decision.",
			},
			[]string{"validator", "decision"},
		),
		ValidatorDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hookgate_validator_duration_seconds",
				Help:    "Validator call latency including format-retry attempts.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"validator"},
		),
		AppealInvocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookgate_appeal_invocations_total",
				Help: "Total Tool-Appeal calls by verdict.",
			},
			[]string{"verdict"},
		),
		DenialEscalations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookgate_denial_escalations_total",
				Help: "Denials that crossed the repeat-workaround escalation threshold.",
			},
			[]string{"category"},
		),
		LazyPathDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hookgate_lazy_path_decisions_total",
				Help: "Trusted-file lazy-path outcomes.",
			},
			[]string{"outcome"},
		),
		BackgroundValidatorFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "hookgate_background_validator_failures_total",
				Help: "Failures to spawn or complete the detached async validator.",
			},
		),
		HookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hookgate_hook_latency_seconds",
				Help:    "End-to-end hook invocation latency, stdin read to stdout write.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"event"},
		),
	}
}
