package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server looks for its configuration file
const DefaultPath = "configs/config.yaml"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	LLM struct {
		Provider                 string `yaml:"provider"`
		Model                    string `yaml:"model"`
		EmbeddingModel           string `yaml:"embedding_model"`
		BaseURL                  string `yaml:"base_url"`
		APIKey                   string `yaml:"api_key"`
		AzureDeployment          string `yaml:"azure_deployment"`
		AzureEmbeddingDeployment string `yaml:"azure_embedding_deployment"`
		SystemPrompt             string `yaml:"system_prompt"`
	} `yaml:"llm"`

	Chat struct {
		DelegationTimeout time.Duration `yaml:"delegation_timeout"`
		TokenLimit        int           `yaml:"token_limit"`
	} `yaml:"chat"`

	Data struct {
		DocsDir      string `yaml:"docs_dir"`
		MenuPath     string `yaml:"menu_path"`
		OrderLog     string `yaml:"order_log"`
		IndexCache   string `yaml:"index_cache"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
		TopK         int    `yaml:"top_k"`
	} `yaml:"data"`

	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`

	Session struct {
		Secret      string        `yaml:"secret"`
		MaxAge      time.Duration `yaml:"max_age"`
		IdleTimeout time.Duration `yaml:"idle_timeout"`
		Secure      bool          `yaml:"secure"`
	} `yaml:"session"`

	MetricsConfig struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	c := &Config{}
	c.Server.Port = 8080
	c.Server.AllowedOrigins = []string{"http://localhost:8080"}
	c.LogLevel = "info"
	c.LogFormat = "text"

	c.LLM.Provider = "ollama"
	c.LLM.Model = "llama3.1:latest"

	c.Chat.DelegationTimeout = 60 * time.Second
	c.Chat.TokenLimit = 16000

	c.Data.DocsDir = "./docs"
	c.Data.MenuPath = "docs/data.csv"
	c.Data.OrderLog = "order/order.csv"
	c.Data.IndexCache = "storage/index.json"
	c.Data.ChunkSize = 1000
	c.Data.ChunkOverlap = 100
	c.Data.TopK = 4

	c.Database.Driver = "sqlite3"
	c.Database.URL = "storage/bakery.db"

	c.Session.MaxAge = 30 * 24 * time.Hour
	c.Session.IdleTimeout = 2 * time.Hour

	c.MetricsConfig.Enabled = true
	c.MetricsConfig.Port = 9090
	c.MetricsConfig.Path = "/metrics"
	return c
}

// Load builds the configuration from defaults, the YAML file at path, .env
// files and the process environment, in increasing precedence. A missing
// config file is not an error. With no envFiles, .env in the working
// directory is read if present.
func Load(path string, envFiles ...string) (*Config, error) {
	c := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, c); err != nil {
				return nil, errors.Wrapf(err, "parse %s", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read %s", path)
		}
	}

	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, errors.Wrap(err, "load env file")
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyProviderDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, "BAKERY_LOG_LEVEL")
	setString(&c.LogFormat, "BAKERY_LOG_FORMAT")

	setString(&c.LLM.Provider, "BAKERY_LLM_PROVIDER")
	setString(&c.LLM.Model, "BAKERY_LLM_MODEL")
	setString(&c.LLM.EmbeddingModel, "BAKERY_EMBEDDING_MODEL")
	setString(&c.LLM.SystemPrompt, "BAKERY_SYSTEM_PROMPT")

	switch c.LLM.Provider {
	case "ollama":
		setString(&c.LLM.BaseURL, "OLLAMA_HOST")
	case "openai":
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
		setString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	case "github":
		setString(&c.LLM.APIKey, "GITHUB_TOKEN")
	case "azure":
		setString(&c.LLM.BaseURL, "AZURE_OPENAI_ENDPOINT")
		setString(&c.LLM.APIKey, "AZURE_OPENAI_API_KEY")
		setString(&c.LLM.AzureDeployment, "AZURE_OPENAI_DEPLOYMENT_NAME")
		setString(&c.LLM.AzureEmbeddingDeployment, "AZURE_OPENAI_EMBEDDING_DEPLOYMENT")
	}

	setString(&c.Data.DocsDir, "BAKERY_DOCS_DIR")
	setString(&c.Data.MenuPath, "BAKERY_MENU_PATH")
	setString(&c.Data.OrderLog, "BAKERY_ORDER_LOG")
	setString(&c.Data.IndexCache, "BAKERY_INDEX_CACHE")

	setString(&c.Database.Driver, "BAKERY_DATABASE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.URL, "BAKERY_DATABASE_URL")

	setString(&c.Session.Secret, "BAKERY_SESSION_SECRET")

	if err := setInt(&c.Server.Port, "BAKERY_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.MetricsConfig.Port, "BAKERY_METRICS_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Chat.TokenLimit, "BAKERY_TOKEN_LIMIT"); err != nil {
		return err
	}
	if err := setDuration(&c.Chat.DelegationTimeout, "BAKERY_DELEGATION_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Session.IdleTimeout, "BAKERY_SESSION_IDLE_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("BAKERY_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// splitList splits a comma separated value, dropping blanks around and
// between entries
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyProviderDefaults fills the endpoint and embedding model the chosen
// provider needs when none were configured
func (c *Config) applyProviderDefaults() {
	switch c.LLM.Provider {
	case "ollama":
		setDefault(&c.LLM.BaseURL, "http://127.0.0.1:11434")
		setDefault(&c.LLM.EmbeddingModel, "nomic-embed-text")
	case "openai":
		setDefault(&c.LLM.EmbeddingModel, "text-embedding-3-small")
	case "github":
		setDefault(&c.LLM.BaseURL, "https://models.inference.ai.azure.com")
		setDefault(&c.LLM.EmbeddingModel, "text-embedding-3-small")
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama", "openai", "github", "azure":
	default:
		return errors.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required")
	}
	if c.LLM.Provider == "azure" && c.LLM.BaseURL == "" {
		return errors.New("azure provider needs AZURE_OPENAI_ENDPOINT or llm.base_url")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.MetricsConfig.Enabled && (c.MetricsConfig.Port <= 0 || c.MetricsConfig.Port > 65535) {
		return errors.Errorf("invalid metrics port %d", c.MetricsConfig.Port)
	}
	if c.Chat.DelegationTimeout <= 0 {
		return errors.New("chat delegation_timeout must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("session idle_timeout must be positive")
	}
	if c.Data.ChunkOverlap >= c.Data.ChunkSize {
		return errors.New("data chunk_overlap must be smaller than chunk_size")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres", "none":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDefault(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	*dst = d
	return nil
}
