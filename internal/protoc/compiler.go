// Package protoc drives the external protocol buffer compiler.
package protoc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultLang is the output language used when none is configured.
const DefaultLang = "cpp"

// Compiler runs one protoc binary for one output language.
type Compiler struct {
	Path   string
	Lang   string
	Logger *zap.Logger
}

// Invocation is a single protoc call.
type Invocation struct {
	OutDir      string
	IncludeDirs []string
	Files       []string
}

// NewCompiler returns a Compiler for path. An empty lang means DefaultLang.
func NewCompiler(path, lang string, l *zap.Logger) *Compiler {
	if lang == "" {
		lang = DefaultLang
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Compiler{Path: path, Lang: lang, Logger: l}
}

// Args builds the protoc command line for inv.
func (c *Compiler) Args(inv Invocation) []string {
	args := []string{"--" + c.Lang + "_out", inv.OutDir}
	if c.Lang == "go" {
		// Keep outputs flat in OutDir instead of nesting by go_package.
		args = append(args, "--go_opt=paths=source_relative")
	}
	for _, dir := range inv.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	return append(args, inv.Files...)
}

// Run executes protoc and blocks until it exits. A non-zero exit is
// returned as *CompileError carrying the captured stderr.
func (c *Compiler) Run(ctx context.Context, inv Invocation) error {
	args := c.Args(inv)
	c.Logger.Debug("exec protoc", zap.String("path", c.Path), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	c.logOutput(stdout.String(), stderr.String())
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("protoc interrupted: %w", ctxErr)
		}
		return &CompileError{
			Compiler: filepath.Base(c.Path),
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
			Cause:    exitErr,
		}
	}
	return fmt.Errorf("run %s: %w", c.Path, err)
}

func (c *Compiler) logOutput(stdout, stderr string) {
	for _, stream := range []struct {
		name, text string
	}{{"stdout", stdout}, {"stderr", stderr}} {
		sc := bufio.NewScanner(strings.NewReader(stream.text))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				c.Logger.Info("protoc", zap.String("stream", stream.name), zap.String("line", line))
			}
		}
	}
}
