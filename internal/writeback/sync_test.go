package writeback

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/pbgen/api"
)

// writeOS writes a file and pins its mtime well in the past so a later
// rewrite is observable even on filesystems with coarse timestamps.
func writeOS(t *testing.T, path, content string) time.Time {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, old, old))
	return old
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

func actions(r api.SyncReport) map[string]api.Action {
	out := map[string]api.Action{}
	for _, f := range r.Files {
		out[f.Name] = f.Action
	}
	return out
}

func TestSync_CopiesNewFiles(t *testing.T) {
	src, dest := memfs.New(), memfs.New()
	require.NoError(t, util.WriteFile(src, "a.pb.h", []byte("header"), 0o644))
	require.NoError(t, util.WriteFile(src, "a.pb.cc", []byte("source"), 0o644))
	require.NoError(t, util.WriteFile(src, "notes.txt", []byte("ignored"), 0o644))

	report, err := NewSynchronizer(nil).Sync(src, dest, false)
	require.NoError(t, err)

	assert.Equal(t, map[string]api.Action{
		"a.pb.cc": api.ActionCreated,
		"a.pb.h":  api.ActionCreated,
	}, actions(report))
	assert.Equal(t, 2, report.Written())
	assert.Equal(t, "a.pb.cc", report.Files[0].Name, "report is sorted by name")

	got, err := util.ReadFile(dest, "a.pb.h")
	require.NoError(t, err)
	assert.Equal(t, "header", string(got))

	_, err = dest.Stat("notes.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSync_SecondRunIsNoOp(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	writeOS(t, filepath.Join(srcDir, "a.pb.h"), "same")

	s := NewSynchronizer(nil)
	_, err := s.Sync(osfs.New(srcDir), osfs.New(destDir), false)
	require.NoError(t, err)

	destPath := filepath.Join(destDir, "a.pb.h")
	pinned := writeOS(t, destPath, "same")

	report, err := s.Sync(osfs.New(srcDir), osfs.New(destDir), false)
	require.NoError(t, err)
	assert.Equal(t, api.ActionUnchanged, actions(report)["a.pb.h"])
	assert.Equal(t, 0, report.Written())
	assert.True(t, modTime(t, destPath).Equal(pinned), "identical content must not be rewritten")
}

func TestSync_ForceRewritesIdenticalContent(t *testing.T) {
	srcDir, destDir := t.TempDir(), t.TempDir()
	writeOS(t, filepath.Join(srcDir, "a.pb.h"), "same")
	destPath := filepath.Join(destDir, "a.pb.h")
	pinned := writeOS(t, destPath, "same")

	report, err := NewSynchronizer(nil).Sync(osfs.New(srcDir), osfs.New(destDir), true)
	require.NoError(t, err)
	assert.Equal(t, api.ActionForced, actions(report)["a.pb.h"])
	assert.True(t, modTime(t, destPath).After(pinned), "force must rewrite the destination")
}

func TestSync_UpdatesChangedContent(t *testing.T) {
	src, dest := memfs.New(), memfs.New()
	require.NoError(t, util.WriteFile(src, "a.pb.h", []byte("new"), 0o644))
	require.NoError(t, util.WriteFile(dest, "a.pb.h", []byte("old"), 0o644))

	report, err := NewSynchronizer(nil).Sync(src, dest, false)
	require.NoError(t, err)
	assert.Equal(t, api.ActionUpdated, actions(report)["a.pb.h"])

	got, err := util.ReadFile(dest, "a.pb.h")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestSync_LeavesStaleDestinationFiles(t *testing.T) {
	src, dest := memfs.New(), memfs.New()
	require.NoError(t, util.WriteFile(src, "a.pb.h", []byte("a"), 0o644))
	require.NoError(t, util.WriteFile(dest, "old.pb.h", []byte("stale"), 0o644))

	_, err := NewSynchronizer(nil).Sync(src, dest, false)
	require.NoError(t, err)

	got, err := util.ReadFile(dest, "old.pb.h")
	require.NoError(t, err)
	assert.Equal(t, "stale", string(got))
}

func TestSync_ReportsHash(t *testing.T) {
	src, dest := memfs.New(), memfs.New()
	require.NoError(t, util.WriteFile(src, "a.pb.h", []byte("abc"), 0o644))

	report, err := NewSynchronizer(nil).Sync(src, dest, false)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", report.Files[0].SHA256)
}

func TestSync_EmptySource(t *testing.T) {
	report, err := NewSynchronizer(nil).Sync(memfs.New(), memfs.New(), false)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}

func TestWriteFileAtomic_ReplacesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	fs := osfs.New(dir)
	require.NoError(t, WriteFileAtomic(fs, "x.pb.h", []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(fs, "x.pb.h", []byte("two"), 0o600))

	got, err := os.ReadFile(filepath.Join(dir, "x.pb.h"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
