package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func emptyEnvFile(t *testing.T) string {
	return writeFile(t, ".env", "")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), emptyEnvFile(t))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1:latest", cfg.LLM.Model)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.LLM.EmbeddingModel)
	assert.Equal(t, "./docs", cfg.Data.DocsDir)
	assert.Equal(t, "docs/data.csv", cfg.Data.MenuPath)
	assert.Equal(t, "order/order.csv", cfg.Data.OrderLog)
	assert.Equal(t, 16000, cfg.Chat.TokenLimit)
	assert.Equal(t, 60*time.Second, cfg.Chat.DelegationTimeout)
	assert.Equal(t, 9090, cfg.MetricsConfig.Port)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
log_level: debug
llm:
  provider: openai
  model: gpt-4o-mini
  api_key: from-yaml
chat:
  delegation_timeout: 15s
data:
  docs_dir: /srv/docs
metrics:
  enabled: false
`)

	cfg, err := Load(path, emptyEnvFile(t))

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "from-yaml", cfg.LLM.APIKey)
	assert.Empty(t, cfg.LLM.BaseURL, "openai keeps the client default endpoint")
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.Equal(t, 15*time.Second, cfg.Chat.DelegationTimeout)
	assert.Equal(t, "/srv/docs", cfg.Data.DocsDir)
	assert.Equal(t, "docs/data.csv", cfg.Data.MenuPath, "unset keys keep defaults")
	assert.False(t, cfg.MetricsConfig.Enabled)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [not, a, map")

	_, err := Load(path, emptyEnvFile(t))

	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "github models",
			env:  map[string]string{"BAKERY_LLM_PROVIDER": "github", "BAKERY_LLM_MODEL": "gpt-4o-mini", "GITHUB_TOKEN": "ghp-env"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://models.inference.ai.azure.com", cfg.LLM.BaseURL)
				assert.Equal(t, "ghp-env", cfg.LLM.APIKey)
			},
		},
		{
			name: "ollama host",
			env:  map[string]string{"OLLAMA_HOST": "http://ollama:11434"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
			},
		},
		{
			name: "openai key only applies to openai",
			env:  map[string]string{"BAKERY_LLM_PROVIDER": "openai", "BAKERY_LLM_MODEL": "gpt-4o", "OPENAI_API_KEY": "sk-env"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "openai", cfg.LLM.Provider)
				assert.Equal(t, "gpt-4o", cfg.LLM.Model)
				assert.Equal(t, "sk-env", cfg.LLM.APIKey)
			},
		},
		{
			name: "azure settings",
			env: map[string]string{
				"BAKERY_LLM_PROVIDER":          "azure",
				"AZURE_OPENAI_ENDPOINT":        "https://bakery.openai.azure.com",
				"AZURE_OPENAI_API_KEY":         "az-key",
				"AZURE_OPENAI_DEPLOYMENT_NAME": "gpt4o",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://bakery.openai.azure.com", cfg.LLM.BaseURL)
				assert.Equal(t, "az-key", cfg.LLM.APIKey)
				assert.Equal(t, "gpt4o", cfg.LLM.AzureDeployment)
			},
		},
		{
			name: "paths ports and timeout",
			env: map[string]string{
				"BAKERY_PORT":               "8181",
				"BAKERY_MENU_PATH":          "/data/menu.csv",
				"BAKERY_DELEGATION_TIMEOUT": "5s",
				"BAKERY_ALLOWED_ORIGINS":    "http://a,http://b",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8181, cfg.Server.Port)
				assert.Equal(t, "/data/menu.csv", cfg.Data.MenuPath)
				assert.Equal(t, 5*time.Second, cfg.Chat.DelegationTimeout)
				assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "origins with spaces and blanks",
			env:  map[string]string{"BAKERY_ALLOWED_ORIGINS": " http://a.example, http://b.example ,,"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "session idle timeout",
			env:  map[string]string{"BAKERY_SESSION_IDLE_TIMEOUT": "15m"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 15*time.Minute, cfg.Session.IdleTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("", emptyEnvFile(t))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "BAKERY_DOCS_DIR=/from/dotenv\n")
	t.Cleanup(func() { os.Unsetenv("BAKERY_DOCS_DIR") })

	cfg, err := Load("", envFile)

	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Data.DocsDir)
}

func TestLoad_BadEnvValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"BAKERY_PORT", "eighty"},
		{"BAKERY_DELEGATION_TIMEOUT", "soon"},
		{"BAKERY_SESSION_IDLE_TIMEOUT", "later"},
		{"BAKERY_LLM_PROVIDER", "cohere"},
		{"BAKERY_DATABASE_DRIVER", "mysql"},
		{"BAKERY_LLM_PROVIDER", "azure"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("AZURE_OPENAI_ENDPOINT", "")
			t.Setenv(tt.key, tt.value)
			_, err := Load("", emptyEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Data.ChunkOverlap = cfg.Data.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Chat.DelegationTimeout = 0
	assert.Error(t, cfg.Validate())
}
