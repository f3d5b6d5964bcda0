// Package config resolves the protoc executable and include directories
// from the environment once at process entry. The resulting Config is passed
// explicitly into the pipeline; nothing below cmd reads the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds the raw environment variables understood by pbgen.
type Env struct {
	// ProtocExecutable overrides PATH lookup of protoc.
	ProtocExecutable string `env:"PROTOBUF_PROTOC_EXECUTABLE"`
	// IncludeDirs is a path list overriding the include dir derived
	// from the protoc install prefix.
	IncludeDirs string `env:"PROTOBUF_INCLUDE_DIRS"`
	// ProtocInclude is used as the -I default when no flag is given.
	ProtocInclude string `env:"PROTOC_INCLUDE"`
	// Path is searched for protoc when ProtocExecutable is unset.
	Path string `env:"PATH"`
}

// Config is the resolved, immutable runtime configuration.
type Config struct {
	// Protoc is the path of the compiler executable.
	Protoc string
	// BaseIncludes are always passed to protoc (well-known types live here).
	BaseIncludes []string
	// DefaultIncludes are used when the caller supplies no include dirs.
	DefaultIncludes []string
}

// LoadEnv reads .env from the working directory if present and parses the
// process environment. Variables already set win over .env entries.
func LoadEnv() (Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Env{}, fmt.Errorf("load .env: %w", err)
	}
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// ParseEnv parses an explicit variable map instead of the process environment.
func ParseEnv(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// Resolve locates protoc and derives the include directories.
func Resolve(e Env) (*Config, error) {
	protoc, err := resolveProtoc(e)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Protoc: protoc}
	if e.IncludeDirs != "" {
		cfg.BaseIncludes = nonEmpty(filepath.SplitList(e.IncludeDirs))
	} else {
		prefix := filepath.Dir(filepath.Dir(protoc))
		cfg.BaseIncludes = []string{filepath.Join(prefix, "include")}
	}
	if e.ProtocInclude != "" {
		cfg.DefaultIncludes = []string{e.ProtocInclude}
	}
	return cfg, nil
}

func resolveProtoc(e Env) (string, error) {
	if e.ProtocExecutable != "" {
		if _, err := os.Stat(e.ProtocExecutable); err != nil {
			return "", &ConfigError{
				Var:     "PROTOBUF_PROTOC_EXECUTABLE",
				Value:   e.ProtocExecutable,
				Message: "set but not found",
				Cause:   ErrCompilerNotFound,
			}
		}
		if !isExecutable(e.ProtocExecutable) {
			return "", &ConfigError{
				Var:     "PROTOBUF_PROTOC_EXECUTABLE",
				Value:   e.ProtocExecutable,
				Message: "set but not executable",
				Cause:   ErrCompilerNotFound,
			}
		}
		return e.ProtocExecutable, nil
	}

	if p := which(compilerName(), e.Path); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("%w: set PROTOBUF_PROTOC_EXECUTABLE to the protoc binary and optionally PROTOBUF_INCLUDE_DIRS", ErrCompilerNotFound)
}

// which returns the first executable named name on the search path.
func which(name, path string) string {
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, name)
		if isExecutable(p) {
			return p
		}
	}
	return ""
}

func compilerName() string {
	if runtime.GOOS == "windows" {
		return "protoc.exe"
	}
	return "protoc"
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
