package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "CATEGORIES_FILE", "STATEMENT_DIALECT", "STATEMENTS_BASE_PATH",
	"WORKERS", "LARGE_AMOUNT_CEILING", "DEDUP_POLICY", "SERVER_ADDR",
	"METRICS_ENABLED", "MAX_UPLOAD_SIZE_BYTES",
}

// clearEnv unsets every key for the duration of the test. godotenv never
// overrides a variable that is set, even to the empty string.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Parser.CategoriesFile)
	assert.Equal(t, "statements", cfg.Pipeline.BasePath)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, int64(50000), cfg.Pipeline.LargeAmountCeiling)
	assert.Equal(t, DedupBroad, cfg.Pipeline.DedupPolicy)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Server.MetricsEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WORKERS", "8")
	t.Setenv("DEDUP_POLICY", "STRICT")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LARGE_AMOUNT_CEILING", "1000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, DedupStrict, cfg.Pipeline.DedupPolicy)
	assert.False(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, int64(1000), cfg.Pipeline.LargeAmountCeiling)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CATEGORIES_FILE=/etc/categories.yaml\nSERVER_ADDR=:9000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/categories.yaml", cfg.Parser.CategoriesFile)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DEDUP_POLICY", "sometimes"},
		{"WORKERS", "0"},
		{"LARGE_AMOUNT_CEILING", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
