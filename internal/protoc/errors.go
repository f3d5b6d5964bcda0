package protoc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompileFailed is matched by every *CompileError.
var ErrCompileFailed = errors.New("protoc failed")

// CompileError reports a non-zero exit of the compiler subprocess.
type CompileError struct {
	Compiler string
	Args     []string
	ExitCode int
	Stderr   string
	Cause    error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Compiler, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns the underlying *exec.ExitError.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrCompileFailed.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompileFailed
}
