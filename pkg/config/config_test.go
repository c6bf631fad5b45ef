package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.AnthropicModel)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"LLM_PROVIDER":       "Gemini",
		"GEMINI_API_KEY":     "g-key",
		"PORT":               "9090",
		"MAX_UPLOAD_MB":      "10",
		"CACHE_TTL":          "2h",
		"REPORT_RETENTION":   "720h",
		"CORS_ALLOW_ORIGINS": "https://a.example, https://b.example,",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "g-key", cfg.LLMKey())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 720*time.Hour, cfg.Retention)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
}

func TestApplyEnvRejectsBadInteger(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{"PORT": "eighty"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_INVALID: PORT")

	err = Default().applyEnv(env(map[string]string{"REPORT_RETENTION": "a month"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_INVALID: REPORT_RETENTION")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.LLMProvider = "openai"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLMProvider")
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
max_parallel: 2
cache_ttl: 30m
report_cache_dir: /tmp/reports
`), 0o644))

	for _, k := range []string{"PORT", "MAX_PARALLEL", "CACHE_TTL", "REPORT_CACHE_DIR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 2, cfg.MaxParallel)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "/tmp/reports", cfg.ReportCacheDir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIG_PARSE_FAILED")
}
