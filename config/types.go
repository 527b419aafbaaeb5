// Package config loads Spawner settings from YAML with environment overrides.
package config

import (
	"github.com/Swind/go-thread/core"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Config is the complete configuration of a Spawner and its ambient stack.
type Config struct {
	Spawner SpawnerSettings `yaml:"spawner"`
	Log     LogSettings     `yaml:"log"`
	Metrics MetricsSettings `yaml:"metrics"`
}

// SpawnerSettings configures core.Spawner.
type SpawnerSettings struct {
	Name string `yaml:"name"`
	// MaxThreads caps live threads; 0 means unlimited.
	MaxThreads int `yaml:"max_threads"`
}

// LogSettings configures the charmbracelet/log adapter.
type LogSettings struct {
	Level LogLevel `yaml:"level"`
}

// MetricsSettings configures the Prometheus exporter.
type MetricsSettings struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	// Address is the listen address of the /metrics endpoint.
	Address string `yaml:"address"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Spawner: SpawnerSettings{
			Name:       "default",
			MaxThreads: 0,
		},
		Log: LogSettings{
			Level: LogLevelInfo,
		},
		Metrics: MetricsSettings{
			Enabled:   false,
			Namespace: "thread",
			Address:   ":2112",
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Spawner.Name == "" {
		return ErrInvalidSpawnerName
	}
	if c.Spawner.MaxThreads < 0 {
		return ErrInvalidMaxThreads
	}
	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return ErrInvalidNamespace
	}
	return nil
}

// SpawnerConfig converts the settings into a core.SpawnerConfig.
// Nil logger or metrics fall back to the core defaults.
func (c *Config) SpawnerConfig(logger core.Logger, metrics core.Metrics) *core.SpawnerConfig {
	cfg := core.DefaultSpawnerConfig()
	cfg.Name = c.Spawner.Name
	cfg.MaxThreads = c.Spawner.MaxThreads
	if logger != nil {
		cfg.Logger = logger
	}
	if metrics != nil {
		cfg.Metrics = metrics
	}
	return cfg
}
