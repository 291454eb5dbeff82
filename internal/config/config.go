// Package config loads and hot-reloads the sidecar's policy
// configuration: model tiers, cache directory, the project's rules/plan
// file locations, the webhook URL, and the lazy/strict mode toggle.
package config

import (
	"sync"
)

// Config is the root configuration for the hookgate sidecar.
type Config struct {
	Models    ModelsConfig    `json:"models"`
	Cache     CacheConfig     `json:"cache"`
	Project   ProjectConfig   `json:"project"`
	Policy    PolicyConfig    `json:"policy"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
	mu        sync.RWMutex
}

// ModelsConfig names the model used for each tier/mode combination. Any
// field left empty falls back to the runner's own built-in default
// (see internal/llm.modelForTier).
type ModelsConfig struct {
	LargeSDK    string `json:"large_sdk,omitempty"`
	LargeDirect string `json:"large_direct,omitempty"`
	SmallSDK    string `json:"small_sdk,omitempty"`
	SmallDirect string `json:"small_direct,omitempty"`
}

// CacheConfig configures the file-backed cache directory every
// internal/cache type shares.
type CacheConfig struct {
	Dir string `json:"dir,omitempty"` // default: os.TempDir()/hookgate-cache
}

// ProjectConfig locates the files the pre-tool orchestrator treats
// specially.
type ProjectConfig struct {
	Root          string `json:"root,omitempty"`           // project root; defaults to $CLAUDE_PROJECT_DIR
	ConfigDir     string `json:"config_dir,omitempty"`      // assistant's own config directory
	PlansDir      string `json:"plans_dir,omitempty"`       // directory holding plan files
	RulesFileName string `json:"rules_file_name,omitempty"` // e.g. "CLAUDE.md"
	QuoteStyle    string `json:"quote_style,omitempty"`      // "double" (default) or "single"
}

// PolicyConfig tunes the pipeline's behavior knobs.
type PolicyConfig struct {
	LazyMode        bool `json:"lazy_mode,omitempty"`         // skip tool-approve's LLM call when the blacklist found nothing
	StrictModeEvery int  `json:"strict_mode_every,omitempty"` // not read by the pre-tool pipeline, which forces a synchronous check every 10 accepted tool calls
}

// TelemetryConfig configures the optional webhook fan-out and metrics.
type TelemetryConfig struct {
	WebhookURL     string `json:"webhook_url,omitempty"` // overridden by HOOKGATE_WEBHOOK_URL
	MetricsEnabled bool   `json:"metrics_enabled,omitempty"`
}

// ReplaceFrom atomically swaps in src's fields, preserving c's mutex —
// used by the hot-reload watcher so readers never see a half-updated
// config.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Models = src.Models
	c.Cache = src.Cache
	c.Project = src.Project
	c.Policy = src.Policy
	c.Telemetry = src.Telemetry
}

// Snapshot returns a copy of c safe to read without holding c's lock
// further.
func (c *Config) Snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Config{
		Models:    c.Models,
		Cache:     c.Cache,
		Project:   c.Project,
		Policy:    c.Policy,
		Telemetry: c.Telemetry,
	}
}
