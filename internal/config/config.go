package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/models"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFiles are loaded in order; the first file to define a variable wins.
var DefaultEnvFiles = []string{".env.local", ".env.development", ".env"}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// Config represents the complete application configuration
type Config struct {
	Server   models.ServerConfig   `yaml:"server"`
	Dispatch models.DispatchConfig `yaml:"dispatch"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: models.ServerConfig{
			Port:           "8080",
			AllowedOrigins: "*",
			Environment:    "development",
			LogLevel:       "info",
		},
		Dispatch: models.DispatchConfig{
			Endpoint:     models.DefaultGenerationEndpoint,
			TimeoutMs:    models.DefaultDispatchTimeoutMs,
			MaxNewTokens: models.DefaultMaxNewTokens,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// process environment, in increasing order of precedence. A missing file at
// configPath is not an error; an empty configPath skips the file entirely.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cfg.mergeFile(configPath); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment into config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(configPath); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(configPath string) error {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)
	if slices.Contains(strings.Split(filepath.ToSlash(cleanPath), "/"), "..") {
		return fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	content := substituteEnvVars(string(data))

	// Unmarshal over the defaults so omitted keys keep their default value
	if err := yaml.Unmarshal([]byte(content), c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.AllowedOrigins = strings.TrimSpace(c.Server.AllowedOrigins)
	c.Dispatch.Endpoint = strings.TrimSpace(c.Dispatch.Endpoint)
	if c.Dispatch.MaxNewTokens <= 0 {
		c.Dispatch.MaxNewTokens = models.DefaultMaxNewTokens
	}
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) []string {
	var loaded []string
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				loaded = append(loaded, envFile)
			}
		}
	}
	return loaded
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			// Remove the leading '-' from default value
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// DispatchTimeout returns the global budget for one dispatch.
func (c *Config) DispatchTimeout() time.Duration {
	if c.Dispatch.TimeoutMs <= 0 {
		return time.Duration(models.DefaultDispatchTimeoutMs) * time.Millisecond
	}
	return time.Duration(c.Dispatch.TimeoutMs) * time.Millisecond
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks if all required configuration values are set.
// An empty token list is deliberately not a validation failure: the process
// starts and every generate request answers with a configuration error.
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Dispatch.Endpoint == "" {
		missing = append(missing, "dispatch.endpoint")
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	u, err := url.Parse(c.Dispatch.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid dispatch.endpoint %q: must be an absolute URL", c.Dispatch.Endpoint)
	}
	if c.Dispatch.TimeoutMs < 0 {
		return fmt.Errorf("invalid dispatch.timeout_ms %d: must not be negative", c.Dispatch.TimeoutMs)
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
