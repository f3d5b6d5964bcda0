// Package writeback owns every write into the destination tree: content-hash
// synchronization of generated files, atomic replacement, and formatting of
// Go outputs before they are synchronized.
package writeback

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/agentic-research/pbgen/api"
)

// Synchronizer copies generated files into a destination tree, skipping
// files whose content is already there.
type Synchronizer struct {
	Logger *zap.Logger
}

// NewSynchronizer returns a Synchronizer logging to l (nil discards).
func NewSynchronizer(l *zap.Logger) *Synchronizer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Synchronizer{Logger: l}
}

// Sync copies every api.OutputPattern file at the root of src into dest
// under the same basename. A destination file is written only when it is
// missing, when force is set, or when its SHA-256 differs. Destination files
// without a counterpart in src are never removed.
func (s *Synchronizer) Sync(src, dest billy.Filesystem, force bool) (api.SyncReport, error) {
	var report api.SyncReport

	names, err := ListOutputs(src)
	if err != nil {
		return report, err
	}

	for _, name := range names {
		res, err := s.syncFile(src, dest, name, force)
		if err != nil {
			return report, err
		}
		s.Logger.Debug("sync",
			zap.String("file", res.Name),
			zap.String("action", string(res.Action)),
			zap.String("sha256", res.SHA256))
		report.Files = append(report.Files, res)
	}
	return report, nil
}

func (s *Synchronizer) syncFile(src, dest billy.Filesystem, name string, force bool) (api.FileResult, error) {
	base := filepath.Base(name)
	res := api.FileResult{Name: base}

	data, err := util.ReadFile(src, name)
	if err != nil {
		return res, fmt.Errorf("read generated %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	res.SHA256 = hex.EncodeToString(sum[:])

	perm := DefaultPerm
	if info, err := src.Stat(name); err == nil {
		perm = info.Mode().Perm()
	}

	switch _, err := dest.Stat(base); {
	case errors.Is(err, os.ErrNotExist):
		res.Action = api.ActionCreated
	case err != nil:
		return res, fmt.Errorf("stat destination %s: %w", base, err)
	case force:
		res.Action = api.ActionForced
	default:
		destSum, err := HashFile(dest, base)
		if err != nil {
			return res, err
		}
		if bytes.Equal(sum[:], destSum) {
			res.Action = api.ActionUnchanged
			return res, nil
		}
		res.Action = api.ActionUpdated
	}

	if err := WriteFileAtomic(dest, base, data, perm); err != nil {
		return res, fmt.Errorf("write destination %s: %w", base, err)
	}
	return res, nil
}

// HashFile returns the SHA-256 of name on fs.
func HashFile(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", name, err)
	}
	return h.Sum(nil), nil
}

// ListOutputs returns the regular files at the root of fs matching
// api.OutputPattern, sorted by name.
func ListOutputs(fs billy.Filesystem) ([]string, error) {
	matches, err := util.Glob(fs, api.OutputPattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", api.OutputPattern, err)
	}
	var names []string
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if info.Mode().IsRegular() {
			names = append(names, m)
		}
	}
	sort.Strings(names)
	return names, nil
}
