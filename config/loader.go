package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix is the prefix of environment overrides.
const DefaultEnvPrefix = "GOTHREAD"

// Loader reads a Config from YAML and applies environment overrides.
type Loader struct {
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader using the GOTHREAD_ environment prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}
}

// SetEnvPrefix sets the environment variable prefix
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load reads the file at path. An empty path yields the defaults plus
// environment overrides.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		return l.finish(DefaultConfig())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	return l.LoadFromReader(f)
}

// LoadFromReader parses YAML from r on top of the defaults.
func (l *Loader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}

	return l.finish(cfg)
}

func (l *Loader) finish(cfg *Config) (*Config, error) {
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	if val, ok := l.env("SPAWNER_NAME"); ok {
		cfg.Spawner.Name = val
	}
	if val, ok := l.env("MAX_THREADS"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s_MAX_THREADS=%q", ErrEnvironmentVarError, l.envPrefix, val)
		}
		cfg.Spawner.MaxThreads = n
	}
	if val, ok := l.env("LOG_LEVEL"); ok {
		cfg.Log.Level = LogLevel(strings.ToLower(val))
	}
	if val, ok := l.env("METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%w: %s_METRICS_ENABLED=%q", ErrEnvironmentVarError, l.envPrefix, val)
		}
		cfg.Metrics.Enabled = enabled
	}
	if val, ok := l.env("METRICS_NAMESPACE"); ok {
		cfg.Metrics.Namespace = val
	}
	if val, ok := l.env("METRICS_ADDRESS"); ok {
		cfg.Metrics.Address = val
	}
	return nil
}

func (l *Loader) env(key string) (string, bool) {
	val, ok := l.lookupEnv(l.envPrefix + "_" + key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Load reads a configuration file using the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
