package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Providers ProvidersConfig `yaml:"providers"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains token verification settings.
type AuthConfig struct {
	SigningSecret string `yaml:"-"` // env-only, never in YAML
	APIKey        string `yaml:"-"` // optional static service key, env-only
}

// SecretsConfig contains settings for API key encryption at rest.
type SecretsConfig struct {
	EncryptionSecret string `yaml:"-"` // env-only, never in YAML
}

// ProvidersConfig contains per-provider endpoint overrides. Empty values
// mean the provider's default endpoint is used. Overrides exist so that
// self-hosted gateways and test servers can stand in for the real APIs.
type ProvidersConfig struct {
	OpenAIBaseURL   string   `yaml:"openai_base_url"`
	GeminiBaseURL   string   `yaml:"gemini_base_url"`
	DeepSeekBaseURL string   `yaml:"deepseek_base_url"`
	QwenBaseURL     string   `yaml:"qwen_base_url"`
	RequestTimeout  Duration `yaml:"request_timeout"`
}

// WordPressConfig contains publishing settings.
type WordPressConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	// Determine config path
	configPath := getEnv("RANKFORGE_CONFIG_PATH", "config/rankforge.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	// Load YAML file (file must exist for this function)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			// Article generation responses can take minutes; the write
			// timeout must cover the slowest provider round trip.
			WriteTimeout:    Duration(5 * time.Minute),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/rankforge.db",
		},
		Providers: ProvidersConfig{
			RequestTimeout: Duration(2 * time.Minute),
		},
		WordPress: WordPressConfig{
			Timeout: Duration(60 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file is OK; use defaults
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("RANKFORGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RANKFORGE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("RANKFORGE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("RANKFORGE_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("RANKFORGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Auth
	if v := os.Getenv("RANKFORGE_SIGNING_SECRET"); v != "" {
		cfg.Auth.SigningSecret = v
	}
	if v := os.Getenv("RANKFORGE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Secrets
	if v := os.Getenv("RANKFORGE_ENCRYPTION_SECRET"); v != "" {
		cfg.Secrets.EncryptionSecret = v
	}

	// Providers
	if v := os.Getenv("RANKFORGE_OPENAI_BASE_URL"); v != "" {
		cfg.Providers.OpenAIBaseURL = v
	}
	if v := os.Getenv("RANKFORGE_GEMINI_BASE_URL"); v != "" {
		cfg.Providers.GeminiBaseURL = v
	}
	if v := os.Getenv("RANKFORGE_DEEPSEEK_BASE_URL"); v != "" {
		cfg.Providers.DeepSeekBaseURL = v
	}
	if v := os.Getenv("RANKFORGE_QWEN_BASE_URL"); v != "" {
		cfg.Providers.QwenBaseURL = v
	}
	if v := os.Getenv("RANKFORGE_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Providers.RequestTimeout = Duration(d)
		}
	}

	// WordPress
	if v := os.Getenv("RANKFORGE_WORDPRESS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WordPress.Timeout = Duration(d)
		}
	}

	// Log
	if v := os.Getenv("RANKFORGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RANKFORGE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (RANKFORGE_DEV_MODE=true), secret validation is skipped.
func (c *Config) validate() error {
	// Dev mode bypasses secret validation
	if os.Getenv("RANKFORGE_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.SigningSecret == "" {
		return errors.New("RANKFORGE_SIGNING_SECRET is required")
	}
	if c.Secrets.EncryptionSecret == "" {
		return errors.New("RANKFORGE_ENCRYPTION_SECRET is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
