package writeback

import (
	"bytes"
	"fmt"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"mvdan.cc/gofumpt/format"
)

// FormatGoBuffer formats Go source code in-memory using gofumpt.
// Returns the formatted buffer, or the original buffer unchanged if
// the file is not a Go file or formatting fails.
func FormatGoBuffer(content []byte, filePath string) []byte {
	if !strings.HasSuffix(filePath, ".go") {
		return content
	}
	formatted, err := format.Source(content, format.Options{})
	if err != nil {
		return content // unparseable, keep as generated
	}
	return formatted
}

// FormatGoOutputs gofumpt-formats every generated .go file at the root of
// fs in place and returns the names that changed.
func FormatGoOutputs(fs billy.Filesystem) ([]string, error) {
	names, err := ListOutputs(fs)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, name := range names {
		if !strings.HasSuffix(name, ".go") {
			continue
		}
		data, err := util.ReadFile(fs, name)
		if err != nil {
			return changed, fmt.Errorf("read %s: %w", name, err)
		}
		formatted := FormatGoBuffer(data, name)
		if bytes.Equal(formatted, data) {
			continue
		}
		perm := DefaultPerm
		if info, err := fs.Stat(name); err == nil {
			perm = info.Mode().Perm()
		}
		if err := WriteFileAtomic(fs, name, formatted, perm); err != nil {
			return changed, err
		}
		changed = append(changed, name)
	}
	return changed, nil
}
