// Package protoctest provides a scripted stand-in for protoc.
//
// The fake understands `--<lang>_out DIR`, ignores other flags and -I
// options, and for every input foo.proto writes foo.pb.h (carrying the
// includes insertion point), foo.pb.cc, and foo.pb.proto (a verbatim copy of
// the input, so tests can observe what protoc was given). With --go_out it
// also writes an unformatted foo.pb.go.
package protoctest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const script = `#!/bin/sh
printf '%%s\n' "$@" > '%s'
%s
out=""
lang=""
while [ $# -gt 0 ]; do
  case "$1" in
    --*_out) lang="$1"; out="$2"; shift 2 ;;
    -*) shift ;;
    *)
      b=$(basename "$1" .proto)
      {
        echo "// Generated by the protocol buffer compiler.  DO NOT EDIT!"
        echo "// source: $b.proto"
        echo "// @@protoc_insertion_point(includes)"
        echo "namespace $b {}"
      } > "$out/$b.pb.h"
      echo "#include \"$b.pb.h\"" > "$out/$b.pb.cc"
      cp "$1" "$out/$b.pb.proto" || exit 2
      if [ "$lang" = "--go_out" ]; then
        printf 'package messages\n\nfunc  Hello()  {\n}\n' > "$out/$b.pb.go"
      fi
      shift
      ;;
  esac
done
`

// Fake is an installed fake protoc.
type Fake struct {
	// Root is the install prefix; the binary lives in Root/bin.
	Root string
	// Path of the executable.
	Path string
	// ArgsFile receives the arguments of the last invocation, one per line.
	ArgsFile string
}

// New installs a fake protoc that succeeds.
func New(t testing.TB) *Fake {
	return install(t, "")
}

// NewFailing installs a fake protoc that prints stderr and exits with code.
func NewFailing(t testing.TB, stderr string, code int) *Fake {
	return install(t, fmt.Sprintf("echo '%s' >&2\nexit %d", stderr, code))
}

func install(t testing.TB, preamble string) *Fake {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake protoc is a POSIX shell script")
	}
	root := t.TempDir()
	bin := filepath.Join(root, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	f := &Fake{
		Root:     root,
		Path:     filepath.Join(bin, "protoc"),
		ArgsFile: filepath.Join(root, "args.txt"),
	}
	body := fmt.Sprintf(script, f.ArgsFile, preamble)
	if err := os.WriteFile(f.Path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return f
}

// Args returns the arguments of the last invocation.
func (f *Fake) Args(t testing.TB) []string {
	t.Helper()
	data, err := os.ReadFile(f.ArgsFile)
	if err != nil {
		t.Fatalf("fake protoc was not invoked: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// Invoked reports whether the fake ran at all.
func (f *Fake) Invoked() bool {
	_, err := os.Stat(f.ArgsFile)
	return err == nil
}
