// Package config loads the console configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the full console configuration.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Realtime Realtime `yaml:"realtime"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Backend configures the REST collaborator.
type Backend struct {
	URL               string        `yaml:"url" env:"ELPATIO_BACKEND_URL"`
	Timeout           time.Duration `yaml:"timeout" env:"ELPATIO_BACKEND_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"ELPATIO_BACKEND_RPS"`
}

// Realtime configures the duplex channel and the polling fallback.
type Realtime struct {
	ReconnectAttempts int           `yaml:"reconnect_attempts" env:"ELPATIO_RT_RECONNECT_ATTEMPTS"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay" env:"ELPATIO_RT_RECONNECT_DELAY"`
	PollInterval      time.Duration `yaml:"poll_interval" env:"ELPATIO_RT_POLL_INTERVAL"`
}

// Log configures the structured logger.
type Log struct {
	Level string `yaml:"level" env:"ELPATIO_LOG_LEVEL"`
}

// Metrics configures the optional Prometheus endpoint.
type Metrics struct {
	Addr string `yaml:"addr" env:"ELPATIO_METRICS_ADDR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: Backend{
			URL:               "http://localhost:3000",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
		},
		Realtime: Realtime{
			ReconnectAttempts: 5,
			ReconnectDelay:    2 * time.Second,
			PollInterval:      30 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration file or falls back to defaults plus
// environment overrides when the file is missing.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
		applyEnv(cfg)
	}
	return cfg
}

func applyEnv(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Realtime.ReconnectAttempts < 1 {
		return fmt.Errorf("realtime.reconnect_attempts must be positive")
	}
	if c.Realtime.PollInterval <= 0 {
		return fmt.Errorf("realtime.poll_interval must be positive")
	}
	return nil
}
