package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/schemagraph/internal/rules"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDB, EnvLogLevel, EnvPort, EnvMaxConcurrency} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
validation:
  level: strict
  failFast: true
  disabledRules: [reference-validation]
storage:
  path: /tmp/graph.db
server:
  port: 9090
logLevel: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rules.LevelStrict, cfg.Validation.Level)
	assert.True(t, cfg.Validation.FailFast)
	// untouched keys keep their defaults
	assert.True(t, cfg.Validation.StructuralValidationEnabled)
	assert.Equal(t, 4, cfg.Validation.MaxConcurrency)
	assert.False(t, cfg.Validation.IsRuleEnabled("reference-validation"))
	assert.Equal(t, "/tmp/graph.db", cfg.Storage.Path)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDB, "env.db")
	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMaxConcurrency, "2")

	cfg, err := Load(writeFile(t, "storage:\n  path: file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Storage.Path)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Validation.MaxConcurrency)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"bad yaml", "server: [", nil},
		{"bad port env", "", map[string]string{EnvPort: "http"}},
		{"bad concurrency env", "", map[string]string{EnvMaxConcurrency: "many"}},
		{"port out of range", "server:\n  port: 70000\n", nil},
		{"unknown log level", "logLevel: loud\n", nil},
		{"unknown validation level", "validation:\n  level: paranoid\n", nil},
		{"empty storage path", "storage:\n  path: \"\"\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.file))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
