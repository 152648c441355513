package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ktgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "analysis_settings.json", cfg.AnalysisSettings)
	assert.Equal(t, runtime.NumCPU(), cfg.Processes)
	assert.Equal(t, "run_ktools.sh", cfg.Script)
	assert.True(t, cfg.Manifest)
	assert.False(t, cfg.Strict)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `analysis_settings: settings/analysis.yaml
processes: 8
strict: true
manifest: false
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "settings/analysis.yaml", cfg.AnalysisSettings)
	assert.Equal(t, 8, cfg.Processes)
	assert.Equal(t, "run_ktools.sh", cfg.Script, "unset key keeps its default")
	assert.True(t, cfg.Strict)
	assert.False(t, cfg.Manifest)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "processes: 8\nlog:\n  level: debug\n")
	t.Setenv("KTGEN_PROCESSES", "3")
	t.Setenv("KTGEN_SCRIPT", "go.sh")
	t.Setenv("KTGEN_LOG__LEVEL", "warn")
	t.Setenv("KTGEN_STRICT", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Processes)
	assert.Equal(t, "go.sh", cfg.Script)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Strict)
}

func TestLoadEmptyPathReadsEnvOnly(t *testing.T) {
	t.Setenv("KTGEN_ANALYSIS_SETTINGS", "a.toml")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "a.toml", cfg.AnalysisSettings)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"zero processes", "processes: 0\n", "processes"},
		{"empty script", "script: \"\"\n", "script"},
		{"bad log level", "log:\n  level: shouting\n", "log"},
		{"malformed yaml", "processes: [1\n", "load config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	path := writeConfig(t, "# "+strings.Repeat("x", maxConfigFileSize)+"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestLoadRejectsDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "analysis_settings", envKey("KTGEN_ANALYSIS_SETTINGS"))
	assert.Equal(t, "log.format", envKey("KTGEN_LOG__FORMAT"))
	assert.Equal(t, "processes", envKey("KTGEN_PROCESSES"))
}
