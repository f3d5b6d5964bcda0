package writeback

import (
	"fmt"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
)

// DefaultPerm is used when the permissions of a source file are unknown.
const DefaultPerm os.FileMode = 0o644

// WriteFileAtomic replaces name on fs with data. The content is written to
// a temp file in the same directory first, then renamed over name, so a
// reader never observes a partially written file.
func WriteFileAtomic(fs billy.Filesystem, name string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(name)
	if dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tmp, err := fs.TempFile(dir, ".pbgen-write-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	if ch, ok := fs.(billy.Change); ok {
		_ = ch.Chmod(tmpName, perm) // best-effort permission sync
	}

	if err := fs.Rename(tmpName, name); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", name, err)
	}
	return nil
}
