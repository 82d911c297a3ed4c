// Package config loads grace's runtime configuration from config.yaml with
// environment overrides, and the business domain from domain.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artmatsak/grace/common/environment"
	"github.com/artmatsak/grace/common/redact"
)

// EnvPrefix is prepended to every environment override, e.g.
// GRACE_LLM_API_KEY or GRACE_SESSION_MAX_CHAIN.
const EnvPrefix = "GRACE_"

// Config is the root of config.yaml.
type Config struct {
	// Domain is the path to domain.yaml.
	Domain string `yaml:"domain" env:"DOMAIN"`
	// Prompt optionally replaces the embedded system prompt template.
	Prompt string `yaml:"prompt,omitempty" env:"PROMPT"`

	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	LLM       LLMConfig       `yaml:"llm" envPrefix:"LLM_"`
	Session   SessionConfig   `yaml:"session" envPrefix:"SESSION_"`
	Knowledge KnowledgeConfig `yaml:"knowledge" envPrefix:"KNOWLEDGE_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Matrix    MatrixConfig    `yaml:"matrix" envPrefix:"MATRIX_"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	// Provider is "openai" (default) or "gemini".
	Provider string        `yaml:"provider" env:"PROVIDER"`
	APIKey   string        `yaml:"api_key,omitempty" env:"API_KEY"`
	BaseURL  string        `yaml:"base_url,omitempty" env:"BASE_URL"`
	Model    string        `yaml:"model,omitempty" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	// MaxAttempts > 1 retries rate-limited and unavailable responses.
	MaxAttempts int `yaml:"max_attempts,omitempty" env:"MAX_ATTEMPTS"`
}

// SessionConfig holds per-session generation and protocol settings.
type SessionConfig struct {
	MaxTokens   int     `yaml:"max_tokens" env:"MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	EndToken    string  `yaml:"end_token" env:"END_TOKEN"`
	MaxChain    int     `yaml:"max_chain" env:"MAX_CHAIN"`
	// Termination is "substring" (default) or "suffix".
	Termination string `yaml:"termination" env:"TERMINATION"`
}

// KnowledgeConfig selects the lookup scorer.
type KnowledgeConfig struct {
	// Scorer is "lexical" (default) or "embedding".
	Scorer         string `yaml:"scorer" env:"SCORER"`
	EmbeddingModel string `yaml:"embedding_model,omitempty" env:"EMBEDDING_MODEL"`
}

// StorageConfig selects the booking store.
type StorageConfig struct {
	// Driver is "memory" (default) or "sqlite".
	Driver string `yaml:"driver" env:"DRIVER"`
	Path   string `yaml:"path,omitempty" env:"PATH"`
}

// ServerConfig configures the web chat frontend.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// MessagesPerSecond and Burst limit inbound messages per connection.
	MessagesPerSecond float64 `yaml:"messages_per_second" env:"MESSAGES_PER_SECOND"`
	Burst             int     `yaml:"burst" env:"BURST"`
}

// MatrixConfig configures the Matrix frontend.
type MatrixConfig struct {
	Homeserver  string   `yaml:"homeserver,omitempty" env:"HOMESERVER"`
	UserID      string   `yaml:"user_id,omitempty" env:"USER_ID"`
	AccessToken string   `yaml:"access_token,omitempty" env:"ACCESS_TOKEN"`
	Rooms       []string `yaml:"rooms,omitempty" env:"ROOMS"`
}

// Default returns the configuration used when config.yaml is silent.
func Default() Config {
	return Config{
		Domain: "domain.yaml",
		Log:    LogConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			Timeout:     120 * time.Second,
			MaxAttempts: 3,
		},
		Session: SessionConfig{
			MaxTokens:   150,
			Temperature: 0.9,
			EndToken:    "END",
			MaxChain:    8,
			Termination: "substring",
		},
		Knowledge: KnowledgeConfig{Scorer: "lexical"},
		Storage:   StorageConfig{Driver: "memory"},
		Server:    ServerConfig{Addr: ":8080", MessagesPerSecond: 1, Burst: 5},
	}
}

// Load reads path over Default, then applies environment overrides. A
// missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := environment.Overlay(&cfg, EnvPrefix); err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = defaultAPIKey(cfg.LLM.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultAPIKey falls back to the provider's conventional variable.
func defaultAPIKey(provider string) string {
	switch provider {
	case "gemini":
		return environment.StringOr("GEMINI_API_KEY", environment.StringOr("GOOGLE_API_KEY", ""))
	default:
		return environment.StringOr("OPENAI_API_KEY", "")
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unsupported %q", c.LLM.Provider))
	}
	switch c.Session.Termination {
	case "", "substring", "suffix":
	default:
		errs = append(errs, fmt.Errorf("session.termination: unsupported %q", c.Session.Termination))
	}
	if strings.TrimSpace(c.Session.EndToken) == "" {
		errs = append(errs, errors.New("session.end_token must not be empty"))
	} else if c.Session.EndToken != strings.TrimSpace(c.Session.EndToken) {
		errs = append(errs, errors.New("session.end_token must not have surrounding whitespace"))
	}
	if c.Session.MaxChain < 0 {
		errs = append(errs, errors.New("session.max_chain must not be negative"))
	}
	if c.Session.MaxTokens < 0 {
		errs = append(errs, errors.New("session.max_tokens must not be negative"))
	}
	switch c.Knowledge.Scorer {
	case "", "lexical", "embedding":
	default:
		errs = append(errs, fmt.Errorf("knowledge.scorer: unsupported %q", c.Knowledge.Scorer))
	}
	switch c.Storage.Driver {
	case "", "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported %q", c.Storage.Driver))
	}
	if c.Server.MessagesPerSecond < 0 || c.Server.Burst < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Redacted renders the effective configuration as YAML with credentials
// replaced, for the startup log.
func (c *Config) Redacted() string {
	llm := redact.Map(map[string]any{"api_key": c.LLM.APIKey})
	mx := redact.Map(map[string]any{"access_token": c.Matrix.AccessToken})

	cp := *c
	cp.LLM.APIKey, _ = llm["api_key"].(string)
	cp.Matrix.AccessToken, _ = mx["access_token"].(string)

	out, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Sprintf("<unprintable config: %v>", err)
	}
	return string(out)
}
