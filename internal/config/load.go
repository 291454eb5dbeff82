package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{},
		Project: ProjectConfig{
			RulesFileName: "CLAUDE.md",
			QuoteStyle:    "double",
		},
		Policy: PolicyConfig{
			StrictModeEvery: 10,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A
// missing file is not an error — env overrides still apply on top of
// Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays HOOKGATE_* env vars onto the config. Env
// vars always take precedence over file values, so a host can override
// a single field without touching the config file.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("HOOKGATE_MODEL_LARGE_SDK", &c.Models.LargeSDK)
	envStr("HOOKGATE_MODEL_LARGE", &c.Models.LargeDirect)
	envStr("HOOKGATE_MODEL_SMALL_SDK", &c.Models.SmallSDK)
	envStr("HOOKGATE_MODEL_SMALL", &c.Models.SmallDirect)

	envStr("HOOKGATE_CACHE_DIR", &c.Cache.Dir)

	envStr("HOOKGATE_PROJECT_ROOT", &c.Project.Root)
	if c.Project.Root == "" {
		envStr("CLAUDE_PROJECT_DIR", &c.Project.Root)
	}
	envStr("HOOKGATE_CONFIG_DIR", &c.Project.ConfigDir)
	envStr("HOOKGATE_PLANS_DIR", &c.Project.PlansDir)
	envStr("HOOKGATE_RULES_FILE_NAME", &c.Project.RulesFileName)
	envStr("HOOKGATE_QUOTE_STYLE", &c.Project.QuoteStyle)

	envStr("HOOKGATE_WEBHOOK_URL", &c.Telemetry.WebhookURL)

	if v := os.Getenv("HOOKGATE_LAZY_MODE"); v != "" {
		c.Policy.LazyMode = v == "1" || v == "true"
	}
}
