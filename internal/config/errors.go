package config

import (
	"errors"
	"strings"
)

// Sentinel errors for configuration failures.
var (
	// ErrCompilerNotFound indicates no usable protoc executable was found.
	ErrCompilerNotFound = errors.New("protoc command not found")
	// ErrInvalidConfig indicates an environment or job-file value is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError describes a configuration value that could not be used.
type ConfigError struct {
	Var     string // environment variable or job-file attribute
	Value   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Var)
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Value != "" {
		b.WriteString(": ")
		b.WriteString(e.Value)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
