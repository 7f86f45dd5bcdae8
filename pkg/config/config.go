package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the optional YAML file read at startup from the working directory.
const ConfigFile = "config.yaml"

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default models per provider, used when LLM_MODEL is unset.
var defaultModels = map[string]string{
	ProviderOpenAI:    "llama3-70b-8192",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// Config holds all configuration for ekaya-analyst.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Startup   StartupConfig   `yaml:"startup"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// URL wins over the individual parts when set.
type DatabaseConfig struct {
	URL            string `yaml:"-" env:"DATABASE_URL"` // Secret - may embed a password
	Host           string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password       string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"DB_NAME" env-default:"flowbit_analytics"`
	SSLMode        string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"10"`
	RunMigrations  bool   `yaml:"run_migrations" env:"DB_RUN_MIGRATIONS" env-default:"false"`
	MigrationsPath string `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH" env-default:"./migrations"`
}

// LLMConfig configures the language model behind the retrieval backend.
// The defaults point at Groq's OpenAI-compatible endpoint.
type LLMConfig struct {
	Provider       string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL        string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	Model          string  `yaml:"model" env:"LLM_MODEL"` // Empty picks the provider's default
	APIKey         string  `yaml:"-" env:"GROQ_API_KEY"` // Secret; LLM_API_KEY is read as a fallback
	EmbeddingModel string  `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:""`
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
}

// ResolverConfig controls natural-language resolution.
type ResolverConfig struct {
	// BackendEnabled turns on the retrieval backend. It is forced off when no API key is set.
	BackendEnabled bool          `yaml:"backend_enabled" env:"RESOLVER_BACKEND_ENABLED" env-default:"true"`
	BackendTimeout time.Duration `yaml:"backend_timeout" env:"RESOLVER_BACKEND_TIMEOUT" env-default:"5s"`
	// RulesFile optionally replaces the built-in intent rule table.
	RulesFile string `yaml:"rules_file" env:"RESOLVER_RULES_FILE" env-default:""`
	TopK      int    `yaml:"top_k" env:"RESOLVER_TOP_K" env-default:"8"`
}

// ExecutorConfig bounds SQL execution.
type ExecutorConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout" env:"EXECUTOR_QUERY_TIMEOUT" env-default:"30s"`
	MaxRows      int           `yaml:"max_rows" env:"EXECUTOR_MAX_ROWS" env-default:"1000"`
}

// KnowledgeConfig controls the training corpus.
type KnowledgeConfig struct {
	// Persist appends training items to the training_items table and replays them at startup.
	Persist bool `yaml:"persist" env:"KNOWLEDGE_PERSIST" env-default:"false"`
}

// StartupConfig controls database initialization retries.
type StartupConfig struct {
	MaxRetries   int           `yaml:"max_retries" env:"STARTUP_MAX_RETRIES" env-default:"5"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"STARTUP_INITIAL_DELAY" env-default:"500ms"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"STARTUP_MAX_DELAY" env-default:"10s"`
	// AllowDegraded serves rule-only resolution when the database never comes up.
	AllowDegraded bool `yaml:"allow_degraded" env:"STARTUP_ALLOW_DEGRADED" env-default:"false"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// When config.yaml is absent, configuration comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", ConfigFile, err)
	}

	cfg.applyFallbacks()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyFallbacks handles fields that need post-processing after loading.
func (c *Config) applyFallbacks() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("LLM_API_KEY")
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModels[c.LLM.Provider]
	}
	// Without a key there is nothing to call.
	if c.LLM.APIKey == "" {
		c.Resolver.BackendEnabled = false
	}
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown llm provider %q (expected openai or anthropic)", c.LLM.Provider)
	}
	if c.Resolver.BackendTimeout <= 0 {
		return fmt.Errorf("resolver backend_timeout must be positive")
	}
	if c.Executor.QueryTimeout <= 0 {
		return fmt.Errorf("executor query_timeout must be positive")
	}
	if c.Executor.MaxRows <= 0 {
		return fmt.Errorf("executor max_rows must be positive")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric: %w", err)
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
