package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/pbgen/internal/config"
	"github.com/agentic-research/pbgen/internal/protoc/protoctest"
)

type cliEnv struct {
	fake   *protoctest.Fake
	src    string
	outDir string
	tmp    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	fake := protoctest.New(t)
	t.Setenv("PROTOBUF_PROTOC_EXECUTABLE", fake.Path)
	t.Setenv("PROTOBUF_INCLUDE_DIRS", "")
	t.Setenv("PROTOC_INCLUDE", "")
	src := filepath.Join(t.TempDir(), "a.proto")
	require.NoError(t, os.WriteFile(src, []byte("syntax = \"proto3\";\npackage old;\nmessage Foo {}\n"), 0o644))
	outDir := filepath.Join(t.TempDir(), "out")

	// Set last: t.TempDir itself honors TMPDIR.
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	return &cliEnv{fake: fake, src: src, outDir: outDir, tmp: tmp}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "warn"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGenerateCmd_TextReport(t *testing.T) {
	env := newCLIEnv(t)

	out, err := run(t, "generate", "-o", env.outDir, "-n", "pkg.sub", env.src)
	require.NoError(t, err)
	assert.Contains(t, out, "created   a.pb.h\n")
	assert.Contains(t, out, "3 of 3 files written\n")

	staged, err := os.ReadFile(filepath.Join(env.outDir, "a.pb.proto"))
	require.NoError(t, err)
	assert.Equal(t, "syntax = \"proto3\";\npackage pkg.sub;\nmessage Foo {}\n", string(staged))

	entries, err := os.ReadDir(env.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging removed")

	out, err = run(t, "generate", "-o", env.outDir, "-n", "pkg.sub", env.src)
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged a.pb.h\n")
	assert.Contains(t, out, "0 of 3 files written\n")

	out, err = run(t, "generate", "-o", env.outDir, "-n", "pkg.sub", "-f", "yes", env.src)
	require.NoError(t, err)
	assert.Contains(t, out, "forced    a.pb.h\n")
}

func TestGenerateCmd_OmittedNamespaceStrips(t *testing.T) {
	env := newCLIEnv(t)

	_, err := run(t, "generate", "-o", env.outDir, "--report", "none", env.src)
	require.NoError(t, err)

	staged, err := os.ReadFile(filepath.Join(env.outDir, "a.pb.proto"))
	require.NoError(t, err)
	assert.Equal(t, "syntax = \"proto3\";\nmessage Foo {}\n", string(staged))
}

func TestGenerateCmd_JSONReport(t *testing.T) {
	env := newCLIEnv(t)

	out, err := run(t, "generate", "-o", env.outDir, "--report", "json", env.src)
	require.NoError(t, err)

	doc, err := oj.ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3)}, jp.MustParseString("$.written").Get(doc))
	assert.Equal(t, []any{"a.pb.h"}, jp.MustParseString("$.patched[*]").Get(doc))
	assert.ElementsMatch(t, []any{"a.pb.cc", "a.pb.h", "a.pb.proto"},
		jp.MustParseString("$.files[*].name").Get(doc))

	runID := jp.MustParseString("$.run_id").Get(doc)
	require.Len(t, runID, 1)
	assert.Len(t, runID[0], 36)
}

func TestGenerateCmd_IncludeDefaultsToEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("PROTOC_INCLUDE", "/opt/proto")

	_, err := run(t, "generate", "-o", env.outDir, "--report", "none", env.src)
	require.NoError(t, err)
	assert.Contains(t, env.fake.Args(t), "-I/opt/proto")

	_, err = run(t, "generate", "-o", env.outDir, "-I", "/mine", "--report", "none", env.src)
	require.NoError(t, err)
	args := env.fake.Args(t)
	assert.Contains(t, args, "-I/mine")
	assert.NotContains(t, args, "-I/opt/proto")
}

func TestGenerateCmd_JobFile(t *testing.T) {
	env := newCLIEnv(t)
	jobOut := filepath.Join(t.TempDir(), "from-job")
	job := filepath.Join(t.TempDir(), "pbgen.hcl")
	require.NoError(t, os.WriteFile(job, []byte(`
out_dir   = "`+jobOut+`"
namespace = "hw.trezor.messages"
`), 0o644))

	_, err := run(t, "generate", "--config", job, "--report", "none", env.src)
	require.NoError(t, err)
	staged, err := os.ReadFile(filepath.Join(jobOut, "a.pb.proto"))
	require.NoError(t, err)
	assert.Contains(t, string(staged), "package hw.trezor.messages;\n")

	_, err = run(t, "generate", "--config", job, "-o", env.outDir, "-n", "flag.wins", "--report", "none", env.src)
	require.NoError(t, err)
	staged, err = os.ReadFile(filepath.Join(env.outDir, "a.pb.proto"))
	require.NoError(t, err)
	assert.Contains(t, string(staged), "package flag.wins;\n")
}

func TestGenerateCmd_Errors(t *testing.T) {
	env := newCLIEnv(t)

	t.Run("no inputs", func(t *testing.T) {
		_, err := run(t, "generate", "-o", env.outDir)
		assert.Error(t, err)
	})

	t.Run("bad force value", func(t *testing.T) {
		_, err := run(t, "generate", "-f", "maybe", env.src)
		assert.ErrorContains(t, err, "invalid boolean")
	})

	t.Run("bad report", func(t *testing.T) {
		_, err := run(t, "generate", "--report", "xml", env.src)
		assert.ErrorContains(t, err, "must be one of")
	})

	t.Run("bad parser", func(t *testing.T) {
		_, err := run(t, "generate", "-o", env.outDir, "--parser", "yacc", env.src)
		assert.ErrorContains(t, err, "unknown parser")
	})

	t.Run("missing compiler", func(t *testing.T) {
		t.Setenv("PROTOBUF_PROTOC_EXECUTABLE", filepath.Join(t.TempDir(), "protoc"))
		_, err := run(t, "generate", "-o", env.outDir, env.src)
		assert.ErrorIs(t, err, config.ErrCompilerNotFound)
		assert.NoDirExists(t, env.outDir)
	})

	t.Run("missing compiler reported before job file", func(t *testing.T) {
		t.Setenv("PROTOBUF_PROTOC_EXECUTABLE", filepath.Join(t.TempDir(), "protoc"))
		absent := filepath.Join(t.TempDir(), "absent.hcl")
		_, err := run(t, "generate", "--config", absent, "-o", env.outDir, env.src)
		assert.ErrorIs(t, err, config.ErrCompilerNotFound)
		assert.NotContains(t, err.Error(), "job file")
	})
}

func TestBoolish(t *testing.T) {
	for in, want := range map[string]bool{
		"1": true, "yes": true, "ON": true, "true": true, "y": true,
		"0": false, "no": false, "off": false, "False": false, "": false,
	} {
		var b boolish
		require.NoError(t, b.Set(in), in)
		assert.Equal(t, want, bool(b), in)
	}

	var b boolish
	assert.Error(t, b.Set("2"))
	assert.Equal(t, "bool", b.Type())
}

func TestOneOf(t *testing.T) {
	v := newOneOf("text", "text", "json")
	assert.Equal(t, "text", v.String())
	require.NoError(t, v.Set("json"))
	assert.Equal(t, "json", v.String())
	assert.Error(t, v.Set("yaml"))
	assert.Equal(t, "json", v.String())
}
