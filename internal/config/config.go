// Package config loads application configuration from environment
// variables, with an optional YAML file overlay, and validates it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"sheetpilot/pkg/contracts/domain"
)

// EnvPrefix is the prefix for all environment variables.
const EnvPrefix = "SHEETPILOT"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Upload   UploadConfig   `yaml:"upload" envconfig:"UPLOAD"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/sheetpilot.log"`
}

// UploadConfig bounds what a single upload may contain
type UploadConfig struct {
	MaxFileSizeMB int64 `yaml:"max_file_size_mb" envconfig:"MAX_FILE_SIZE_MB" default:"32"`
	MaxRows       int   `yaml:"max_rows" envconfig:"MAX_ROWS" default:"200000"`
}

// PipelineConfig contains transformation pipeline defaults
type PipelineConfig struct {
	// DateOrder settles ambiguous N1/N2/YYYY dates: "DD/MM/YYYY" or
	// "MM/DD/YYYY".
	DateOrder        string `yaml:"date_order" envconfig:"DATE_ORDER" default:"DD/MM/YYYY"`
	DetectionSamples int    `yaml:"detection_samples" envconfig:"DETECTION_SAMPLES" default:"10"`
}

// ExportConfig contains workbook export configuration
type ExportConfig struct {
	Styled bool `yaml:"styled" envconfig:"STYLED" default:"true"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// Load loads configuration from environment variables, overlays the YAML
// config file when one exists, and validates the result.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := overlayFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("load config from file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// configFilePath returns the config file location, overridable via
// SHEETPILOT_CONFIG_FILE.
func configFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	return "sheetpilot.yaml"
}

func overlayFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// AssumedOrder returns the pipeline date order as a domain type.
func (c *Config) AssumedOrder() domain.DateOrder {
	if strings.EqualFold(c.Pipeline.DateOrder, string(domain.DateOrderMonthFirst)) {
		return domain.DateOrderMonthFirst
	}
	return domain.DateOrderDayFirst
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Upload.MaxFileSizeMB * 1024 * 1024
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	switch c.Pipeline.DateOrder {
	case string(domain.DateOrderDayFirst), string(domain.DateOrderMonthFirst):
	default:
		return fmt.Errorf("invalid pipeline date order: %s", c.Pipeline.DateOrder)
	}

	if c.Pipeline.DetectionSamples < 1 {
		return fmt.Errorf("detection samples must be positive: %d", c.Pipeline.DetectionSamples)
	}
	if c.Upload.MaxFileSizeMB < 1 {
		return fmt.Errorf("max file size must be positive: %d", c.Upload.MaxFileSizeMB)
	}
	if c.Upload.MaxRows < 1 {
		return fmt.Errorf("max rows must be positive: %d", c.Upload.MaxRows)
	}
	return nil
}
