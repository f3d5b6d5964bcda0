// Package namespace rewrites the package declaration of .proto files.
//
// Only two declarations are understood: the syntax line and the package
// line. Locating them is delegated to a Scanner so the line-pattern
// implementation can be replaced by a real parser without touching callers.
package namespace

import (
	"fmt"
	"regexp"
)

// Scanner finds the first syntax and package declaration in a file.
// Indexes are 0-based line numbers; ok is false when nothing matched.
type Scanner interface {
	FindSyntaxLine(lines []string) (idx int, ok bool)
	FindPackageLine(lines []string) (idx int, ok bool)
}

var (
	syntaxRe  = regexp.MustCompile(`^syntax\s*=`)
	packageRe = regexp.MustCompile(`^package\s+([^;]+?)\s*;\s*$`)
)

// RegexScanner matches declarations anchored at the start of a line.
type RegexScanner struct{}

// FindSyntaxLine returns the first line starting with `syntax =`.
func (RegexScanner) FindSyntaxLine(lines []string) (int, bool) {
	return firstMatch(syntaxRe, lines)
}

// FindPackageLine returns the first `package <ident>;` line.
func (RegexScanner) FindPackageLine(lines []string) (int, bool) {
	return firstMatch(packageRe, lines)
}

func firstMatch(re *regexp.Regexp, lines []string) (int, bool) {
	for i, line := range lines {
		if re.MatchString(line) {
			return i, true
		}
	}
	return -1, false
}

// PackageName extracts the identifier from a package declaration line.
func PackageName(line string) string {
	m := packageRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// ScannerFor returns the scanner registered under name.
func ScannerFor(name string) (Scanner, error) {
	switch name {
	case "", "regex":
		return RegexScanner{}, nil
	case "treesitter", "tree-sitter":
		return TreeSitterScanner{}, nil
	default:
		return nil, fmt.Errorf("unknown parser %q (want regex or treesitter)", name)
	}
}
