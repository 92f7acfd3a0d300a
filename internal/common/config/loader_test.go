package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearLLMEnv(t *testing.T) {
	for _, k := range []string{"GROQ_API_KEY", "GROQ_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT", "ZEEBE_ADDRESS", "REDIS_ADDRESS"} {
		t.Setenv(k, "")
	}
}

// ==========================
// Defaults
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearLLMEnv(t)
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
workers:
  generate-form:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultVisionModel, cfg.LLM.VisionModel)
	assert.Equal(t, DefaultBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, 4000, cfg.LLM.MaxTokens)
	assert.Equal(t, 30000, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 1000, cfg.LLM.BaseDelay)
	assert.Equal(t, 600000, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.App.HTTPAddress)
	assert.False(t, cfg.LLM.IsConfigured())

	w := GetWorkerConfig(cfg, "generate-form")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 120000, w.Timeout)
}

// ==========================
// Environment overrides
// ==========================

func TestLoadFromFile_ProviderEnvFallbacks(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("GROQ_MODEL", "custom-model")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("LLM_MAX_TOKENS", "2000")
	t.Setenv("LLM_TIMEOUT", "15000")
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: formgen\n"))
	require.NoError(t, err)

	assert.Equal(t, "gsk_test", cfg.LLM.APIKey)
	assert.True(t, cfg.LLM.IsConfigured())
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
	assert.Equal(t, 15000, cfg.LLM.Timeout)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("FORMGEN_TEST_KEY", "expanded-key")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
llm:
  api_key: ${FORMGEN_TEST_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.LLM.APIKey)
}

func TestLLMConfig_PlaceholderIsNotConfigured(t *testing.T) {
	assert.False(t, LLMConfig{APIKey: PlaceholderAPIKey}.IsConfigured())
	assert.False(t, LLMConfig{}.IsConfigured())
	assert.True(t, LLMConfig{APIKey: "gsk_real"}.IsConfigured())
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "app:\n  name: x\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "temperature out of range",
			body:    "camunda:\n  broker_address: b\nllm:\n  temperature: 1.5\n",
			wantErr: "llm.temperature",
		},
		{
			name:    "max tokens too small",
			body:    "camunda:\n  broker_address: b\nllm:\n  max_tokens: 50\n",
			wantErr: "llm.max_tokens",
		},
		{
			name:    "timeout too large",
			body:    "camunda:\n  broker_address: b\nllm:\n  timeout: 90000\n",
			wantErr: "llm.timeout",
		},
		{
			name:    "cache without redis",
			body:    "camunda:\n  broker_address: b\ncache:\n  enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "tracing without endpoint",
			body:    "camunda:\n  broker_address: b\ntracing:\n  enabled: true\n",
			wantErr: "tracing.collector_endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLLMEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// ==========================
// Helpers
// ==========================

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"chat-reply": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "chat-reply"))
	assert.True(t, IsWorkerEnabled(cfg, "generate-form"))
}
