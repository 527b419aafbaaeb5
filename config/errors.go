package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidSpawnerName = errors.New("invalid spawner name")
	ErrInvalidMaxThreads  = errors.New("invalid max threads")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidNamespace   = errors.New("invalid metrics namespace")
)

// Configuration loading errors
var (
	ErrConfigParseError    = errors.New("configuration parse error")
	ErrEnvironmentVarError = errors.New("environment variable error")
)
