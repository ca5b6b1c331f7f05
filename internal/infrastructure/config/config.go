package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Stream    StreamConfig    `yaml:"stream"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// SpawnConfig holds process launch configuration.
type SpawnConfig struct {
	// StderrMode is "pipe" or "inherit".
	StderrMode string `envconfig:"SPAWN_STDERR_MODE" default:"pipe" yaml:"stderr_mode"`
	// AllowedPrograms restricts argv[0]; empty allows everything.
	AllowedPrograms []string `envconfig:"SPAWN_ALLOWED_PROGRAMS" yaml:"allowed_programs"`
	// ForkFailureThreshold consecutive fork failures suspend launches for
	// ForkCooldown. Zero disables the guard.
	ForkFailureThreshold int           `envconfig:"SPAWN_FORK_FAILURE_THRESHOLD" default:"5" yaml:"fork_failure_threshold"`
	ForkCooldown         time.Duration `envconfig:"SPAWN_FORK_COOLDOWN" default:"5s" yaml:"fork_cooldown"`
}

// StreamConfig holds output streaming configuration.
type StreamConfig struct {
	PollInterval time.Duration `envconfig:"STREAM_POLL_INTERVAL" default:"10ms" yaml:"poll_interval"`
	MaxBackoff   time.Duration `envconfig:"STREAM_MAX_BACKOFF" default:"500ms" yaml:"max_backoff"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"procpipe" yaml:"namespace"`
}

// Load loads configuration from environment variables, then applies the
// YAML file named by CONFIG_FILE if set.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ApplyFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	if _, err := spawn.ParseStderrMode(c.Spawn.StderrMode); err != nil {
		return fmt.Errorf("invalid SPAWN_STDERR_MODE: %w", err)
	}
	if c.Spawn.ForkFailureThreshold < 0 {
		return fmt.Errorf("fork failure threshold must not be negative, got %d", c.Spawn.ForkFailureThreshold)
	}
	if c.Spawn.ForkFailureThreshold > 0 && c.Spawn.ForkCooldown <= 0 {
		return fmt.Errorf("fork cooldown must be positive, got %s", c.Spawn.ForkCooldown)
	}
	if c.Stream.PollInterval <= 0 {
		return fmt.Errorf("stream poll interval must be positive, got %s", c.Stream.PollInterval)
	}
	if c.Stream.MaxBackoff < c.Stream.PollInterval {
		return fmt.Errorf("stream max backoff %s is below poll interval %s", c.Stream.MaxBackoff, c.Stream.PollInterval)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive rps and burst")
	}
	return nil
}

// StderrMode returns the parsed spawn stderr mode.
func (c *Config) StderrMode() spawn.StderrMode {
	mode, err := spawn.ParseStderrMode(c.Spawn.StderrMode)
	if err != nil {
		return spawn.StderrPipe
	}
	return mode
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Spawn: SpawnConfig{
			StderrMode:           "pipe",
			ForkFailureThreshold: 5,
			ForkCooldown:         5 * time.Second,
		},
		Stream: StreamConfig{
			PollInterval: 10 * time.Millisecond,
			MaxBackoff:   500 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Namespace: "procpipe",
		},
	}
}
