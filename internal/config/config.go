// Package config loads the feedloop configuration from per-environment YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/feedloop-io/feedloop/internal/domain"
)

// Config holds the feedloop API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Auth      AuthConfig      `yaml:"auth"`
	Index     IndexConfig     `yaml:"index"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search backend connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the feedback index settings.
type IndexConfig struct {
	KeyPrefix       string `yaml:"key_prefix"`
	Name            string `yaml:"name"`
	Dimensions      int    `yaml:"dimensions"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	DefaultLimit    int    `yaml:"default_limit"`
	MaxLimit        int    `yaml:"max_limit"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// ChatConfig holds completion provider settings.
type ChatConfig struct {
	APIKey           string  `yaml:"api_key"` // defaults to embedding.api_key
	BaseURL          string  `yaml:"base_url"`
	Model            string  `yaml:"model"`
	ClassifyTemp     float32 `yaml:"classify_temperature"`
	ResponseTemp     float32 `yaml:"response_temperature"`
	SummaryTemp      float32 `yaml:"summary_temperature"`
	ContextLimit     int     `yaml:"context_limit"`
	StreamTimeoutSec int     `yaml:"stream_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Chat.StreamTimeoutSec <= 0 {
		c.Chat.StreamTimeoutSec = 120
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Chat responses stream over plain HTTP, so the server write timeout
		// has to outlast the longest allowed stream.
		c.HTTP.WriteTimeoutSec = c.Chat.StreamTimeoutSec + 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "feedloop:"
	}
	if c.Index.Name == "" {
		c.Index.Name = "feedback"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = c.Embedding.Dimensions
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Index.DefaultLimit <= 0 {
		c.Index.DefaultLimit = 10
	}
	if c.Index.MaxLimit <= 0 {
		c.Index.MaxLimit = 100
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.Index.Dimensions
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Embedding.APIKey
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = c.Embedding.BaseURL
	}
	if c.Chat.ClassifyTemp <= 0 {
		c.Chat.ClassifyTemp = 0.2
	}
	if c.Chat.ResponseTemp <= 0 {
		c.Chat.ResponseTemp = 0.7
	}
	if c.Chat.SummaryTemp <= 0 {
		c.Chat.SummaryTemp = 0.5
	}
	if c.Chat.ContextLimit <= 0 {
		c.Chat.ContextLimit = 40
	}
}

// Validate checks the configuration for correctness. Missing provider
// credentials fail here, at startup, with the offending key named.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required: %w", domain.ErrMissingConfig)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required (set FEEDLOOP_EMBEDDING_API_KEY): %w",
			domain.ErrMissingConfig)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required: %w", domain.ErrMissingConfig)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions is required: %w", domain.ErrMissingConfig)
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required: %w", domain.ErrMissingConfig)
	}
	if c.Index.Dimensions != c.Embedding.Dimensions {
		return fmt.Errorf("index.dimensions (%d) must match embedding.dimensions (%d)",
			c.Index.Dimensions, c.Embedding.Dimensions)
	}
	if c.HTTP.WriteTimeoutSec > 0 && c.Chat.StreamTimeoutSec > 0 &&
		c.HTTP.WriteTimeoutSec <= c.Chat.StreamTimeoutSec {
		return fmt.Errorf("http.write_timeout_sec (%d) must exceed chat.stream_timeout_sec (%d)",
			c.HTTP.WriteTimeoutSec, c.Chat.StreamTimeoutSec)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
