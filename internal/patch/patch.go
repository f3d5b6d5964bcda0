// Package patch post-processes protoc output before it is synchronized.
//
// protoc emits an insertion-point comment near the top of generated C++
// headers. Some glibc versions define a `minor` macro in <sys/sysmacros.h>
// that collides with message fields named minor, so an #undef guard is
// injected right after the includes marker.
package patch

import (
	"fmt"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/agentic-research/pbgen/internal/writeback"
)

// Marker is the insertion point the guard is placed after.
const Marker = "@@protoc_insertion_point(includes)"

// Fragment is inserted verbatim after the marker line.
const Fragment = "\n#ifdef minor\n#undef minor\n#endif\n"

// Patcher applies Fragment to generated files.
type Patcher struct {
	Logger *zap.Logger
}

// NewPatcher returns a Patcher logging to l (nil discards).
func NewPatcher(l *zap.Logger) *Patcher {
	if l == nil {
		l = zap.NewNop()
	}
	return &Patcher{Logger: l}
}

// Patch rewrites every generated file at the root of fs that contains the
// marker and returns their names. Files without the marker are left
// byte-identical.
func (p *Patcher) Patch(fs billy.Filesystem) ([]string, error) {
	names, err := writeback.ListOutputs(fs)
	if err != nil {
		return nil, err
	}

	var patched []string
	for _, name := range names {
		data, err := util.ReadFile(fs, name)
		if err != nil {
			return patched, fmt.Errorf("read %s: %w", name, err)
		}
		out, ok := Apply(string(data))
		if !ok {
			p.Logger.Debug("no insertion point", zap.String("file", name))
			continue
		}
		perm := writeback.DefaultPerm
		if info, err := fs.Stat(name); err == nil {
			perm = info.Mode().Perm()
		}
		if err := writeback.WriteFileAtomic(fs, name, []byte(out), perm); err != nil {
			return patched, fmt.Errorf("patch %s: %w", name, err)
		}
		patched = append(patched, name)
	}
	return patched, nil
}

// Apply inserts Fragment after the first line containing Marker.
func Apply(content string) (string, bool) {
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if !strings.Contains(line, Marker) {
			continue
		}
		var b strings.Builder
		b.Grow(len(content) + len(Fragment))
		for _, l := range lines[:i+1] {
			b.WriteString(l)
		}
		b.WriteString(Fragment)
		for _, l := range lines[i+1:] {
			b.WriteString(l)
		}
		return b.String(), true
	}
	return content, false
}
