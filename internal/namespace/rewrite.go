package namespace

import (
	"fmt"
	"os"
	"strings"
)

// Rewriter edits the package declaration of a proto file in place.
type Rewriter struct {
	Scanner Scanner
}

// NewRewriter returns a Rewriter using s, or the regex scanner when s is nil.
func NewRewriter(s Scanner) *Rewriter {
	if s == nil {
		s = RegexScanner{}
	}
	return &Rewriter{Scanner: s}
}

// Declaration renders the package line for ns.
func Declaration(ns string) string {
	return "package " + ns + ";"
}

// Rewrite sets the package of the file at path to namespace, or strips it
// when namespace is nil, and returns the resulting content. The file is only
// written when a line was inserted, replaced or removed.
func (r *Rewriter) Rewrite(path string, namespace *string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	content, changed := r.Apply(string(data), namespace)
	if !changed {
		return content, nil
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return content, nil
}

// Apply is the pure form of Rewrite. Only the first syntax and package
// lines are considered; later duplicates are left as they are.
func (r *Rewriter) Apply(content string, namespace *string) (string, bool) {
	lines := strings.Split(content, "\n")
	syntaxIdx, hasSyntax := r.Scanner.FindSyntaxLine(lines)
	pkgIdx, hasPkg := r.Scanner.FindPackageLine(lines)

	if namespace == nil {
		if !hasPkg {
			return content, false
		}
		lines = append(lines[:pkgIdx], lines[pkgIdx+1:]...)
		return strings.Join(lines, "\n"), true
	}

	decl := Declaration(*namespace)
	if hasPkg {
		lines[pkgIdx] = decl
		return strings.Join(lines, "\n"), true
	}

	at := 0
	if hasSyntax {
		at = syntaxIdx + 1
	}
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = decl
	return strings.Join(lines, "\n"), true
}
