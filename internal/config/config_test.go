package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, "CLAUDE.md", cfg.Project.RulesFileName)
	require.Equal(t, 10, cfg.Policy.StrictModeEvery)
}

func TestLoad_ParsesJSON5File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hookgate.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// trailing commas and comments are fine in json5
		models: { small_direct: "claude-3-5-haiku-20241022" },
		policy: { lazy_mode: true },
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "claude-3-5-haiku-20241022", cfg.Models.SmallDirect)
	require.True(t, cfg.Policy.LazyMode)
}

func TestLoad_EnvOverridesFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hookgate.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{models: {small_direct: "file-model"}}`), 0o600))

	t.Setenv("HOOKGATE_MODEL_SMALL", "env-model")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-model", cfg.Models.SmallDirect)
}

func TestConfig_ReplaceFromSwapsAllFields(t *testing.T) {
	cfg := Default()
	fresh := Default()
	fresh.Policy.LazyMode = true
	fresh.Project.RulesFileName = "RULES.md"

	cfg.ReplaceFrom(fresh)

	snap := cfg.Snapshot()
	require.True(t, snap.Policy.LazyMode)
	require.Equal(t, "RULES.md", snap.Project.RulesFileName)
}
