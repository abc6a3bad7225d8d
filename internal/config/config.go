package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Egham-7/sitegen-mock/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = "8080"
	defaultAllowedOrigins   = "*"
	defaultLogLevel         = "info"
	defaultContentDir       = "content"
	defaultFileExtension    = ".html"
	defaultBlockSize        = 1024
	defaultDelayMs          = 3000
	defaultMaxBlockSize     = 1 << 20
	defaultMaxDelayMs       = 60_000
	defaultRecorderWorkers  = 2
	defaultRecorderBuffer   = 256
	defaultSessionTimeoutMs = 10 * 60 * 1000
)

// EnvPrefix names the variables read by ApplyEnvOverrides, e.g. SITEGEN_PORT
const EnvPrefix = "SITEGEN"

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// Config represents the complete application configuration
type Config struct {
	Server   models.ServerConfig    `yaml:"server"`
	Stream   models.StreamConfig    `yaml:"stream"`
	Database *models.DatabaseConfig `yaml:"database,omitempty"`
	Redis    *models.RedisConfig    `yaml:"redis,omitempty"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnvOverrides(EnvPrefix); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes YAML configuration after substituting environment variables
// and fills unset values with defaults
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	config := &Config{}
	config.ApplyDefaults()
	return config
}

// EnvOverrides holds deployment settings that may be set directly in the
// environment without touching the YAML file
type EnvOverrides struct {
	Port        string `envconfig:"PORT"`
	Environment string `envconfig:"ENVIRONMENT"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	ContentDir  string `envconfig:"CONTENT_DIR"`
}

// ApplyEnvOverrides replaces file values with any <prefix>_* variables that are set
func (c *Config) ApplyEnvOverrides(prefix string) error {
	var overrides EnvOverrides
	if err := envconfig.Process(prefix, &overrides); err != nil {
		return fmt.Errorf("failed to read %s_* environment overrides: %w", prefix, err)
	}

	if overrides.Port != "" {
		c.Server.Port = overrides.Port
	}
	if overrides.Environment != "" {
		c.Server.Environment = overrides.Environment
	}
	if overrides.LogLevel != "" {
		c.Server.LogLevel = overrides.LogLevel
	}
	if overrides.ContentDir != "" {
		c.Stream.ContentDir = overrides.ContentDir
	}
	return nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
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
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// ApplyDefaults fills zero values with the built-in defaults
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = defaultAllowedOrigins
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}

	s := &c.Stream
	if s.ContentDir == "" {
		s.ContentDir = defaultContentDir
	}
	if s.FileExtension == "" {
		s.FileExtension = defaultFileExtension
	}
	if s.BlockSize == 0 {
		s.BlockSize = defaultBlockSize
	}
	if s.DelayMs == nil {
		delay := defaultDelayMs
		s.DelayMs = &delay
	}
	if s.MaxBlockSize == 0 {
		s.MaxBlockSize = defaultMaxBlockSize
	}
	if s.MaxDelayMs == 0 {
		s.MaxDelayMs = defaultMaxDelayMs
	}
	if s.SessionTimeoutMs == 0 {
		s.SessionTimeoutMs = defaultSessionTimeoutMs
	}

	if c.Database != nil {
		if c.Database.RecorderWorkers == 0 {
			c.Database.RecorderWorkers = defaultRecorderWorkers
		}
		if c.Database.RecorderBuffer == 0 {
			c.Database.RecorderBuffer = defaultRecorderBuffer
		}
	}
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks if all required configuration values are set and consistent
func (c *Config) Validate() error {
	var missing []string
	var invalid []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}
	if c.Stream.ContentDir == "" && !c.Stream.FallbackTemplate {
		missing = append(missing, "stream.content_dir")
	}

	if c.Stream.BlockSize <= 0 {
		invalid = append(invalid, "stream.block_size must be positive")
	}
	if c.Stream.DelayMs != nil && *c.Stream.DelayMs < 0 {
		invalid = append(invalid, "stream.delay_ms must not be negative")
	}
	if c.Stream.MaxBlockSize > 0 && c.Stream.BlockSize > c.Stream.MaxBlockSize {
		invalid = append(invalid, "stream.block_size exceeds stream.max_block_size")
	}
	if c.Stream.MaxDelayMs > 0 && c.Stream.DelayMs != nil && *c.Stream.DelayMs > c.Stream.MaxDelayMs {
		invalid = append(invalid, "stream.delay_ms exceeds stream.max_delay_ms")
	}
	if c.Stream.SessionTimeoutMs < 0 {
		invalid = append(invalid, "stream.session_timeout_ms must not be negative")
	}
	if c.Stream.MaxStreamsPerClient < 0 {
		invalid = append(invalid, "stream.max_streams_per_client must not be negative")
	}

	if c.Database != nil && c.Database.Type == "" {
		missing = append(missing, "database.type")
	}
	if c.Database != nil && c.Database.RetentionHours < 0 {
		invalid = append(invalid, "database.retention_hours must not be negative")
	}
	if c.Redis != nil && c.Redis.URL == "" {
		missing = append(missing, "redis.url")
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return &ValidationError{MissingFields: missing, InvalidFields: invalid}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
	InvalidFields []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing required configuration fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.InvalidFields) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.InvalidFields, "; "))
	}
	return strings.Join(parts, "; ")
}
