// Package pipeline composes staging, namespace rewriting, protoc, output
// patching and synchronization into a single generate run.
//
// A run is strictly sequential:
//
//	copy inputs -> rewrite package -> protoc -> patch -> (gofumpt) -> sync
//
// Inputs are copied into a private staging directory before they are
// rewritten, so the caller's .proto files are never modified. protoc writes
// into a second staging directory and only the synchronizer touches the
// destination tree.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/agentic-research/pbgen/api"
	"github.com/agentic-research/pbgen/internal/config"
	"github.com/agentic-research/pbgen/internal/linter"
	"github.com/agentic-research/pbgen/internal/namespace"
	"github.com/agentic-research/pbgen/internal/patch"
	"github.com/agentic-research/pbgen/internal/protoc"
	"github.com/agentic-research/pbgen/internal/writeback"
)

// ErrNoInputs is returned when a request names no .proto files.
var ErrNoInputs = errors.New("no input files")

// Request describes one generate run.
type Request struct {
	Files       []string
	OutDir      string
	IncludeDirs []string
	// Namespace replaces the package declaration; nil strips it.
	Namespace *string
	Force     bool
}

// Options selects the pluggable parts of a Driver.
type Options struct {
	Lang   string // protoc output language, default cpp
	Parser string // namespace scanner: regex or treesitter
	// TempDir is the parent of the staging directories (os.TempDir if empty).
	TempDir string
}

// Driver runs requests against a resolved configuration.
type Driver struct {
	Config       *config.Config
	Compiler     *protoc.Compiler
	Rewriter     *namespace.Rewriter
	Patcher      *patch.Patcher
	Synchronizer *writeback.Synchronizer
	Logger       *zap.Logger

	formatGo bool
	tempDir  string
}

// New wires a Driver. The configuration is used as-is; nothing is read
// from the environment here.
func New(cfg *config.Config, opts Options, l *zap.Logger) (*Driver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: nil config")
	}
	if l == nil {
		l = zap.NewNop()
	}
	scanner, err := namespace.ScannerFor(opts.Parser)
	if err != nil {
		return nil, err
	}
	c := protoc.NewCompiler(cfg.Protoc, opts.Lang, l.Named("protoc"))
	return &Driver{
		Config:       cfg,
		Compiler:     c,
		Rewriter:     namespace.NewRewriter(scanner),
		Patcher:      patch.NewPatcher(l.Named("patch")),
		Synchronizer: writeback.NewSynchronizer(l.Named("sync")),
		Logger:       l,
		formatGo:     c.Lang == "go",
		tempDir:      opts.TempDir,
	}, nil
}

// Generate stages, compiles, patches and synchronizes req.Files into
// req.OutDir. A protoc failure aborts the run before the destination is
// touched; staging directories are removed on every path.
func (d *Driver) Generate(ctx context.Context, req Request) (api.RunReport, error) {
	report := api.RunReport{Inputs: req.Files}
	if len(req.Files) == 0 {
		return report, ErrNoInputs
	}

	includes := protoc.NewIncludeSet(d.Config.BaseIncludes...)
	includes.Add(req.IncludeDirs...)

	err := WithStaging(d.tempDir, func(inDir, outDir string) error {
		includes.Add(inDir)

		staged, err := d.stage(req.Files, inDir, req.Namespace)
		if err != nil {
			return err
		}

		inv := protoc.Invocation{OutDir: outDir, IncludeDirs: includes.Dirs(), Files: staged}
		if err := d.Compiler.Run(ctx, inv); err != nil {
			return err
		}

		outFS := osfs.New(outDir)
		if report.Patched, err = d.Patcher.Patch(outFS); err != nil {
			return err
		}
		if d.formatGo {
			if report.Formatted, err = writeback.FormatGoOutputs(outFS); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		report.Sync, err = d.Synchronizer.Sync(outFS, osfs.New(req.OutDir), req.Force)
		return err
	})
	if err != nil {
		return report, err
	}

	d.Logger.Info("generated",
		zap.Int("inputs", len(req.Files)),
		zap.Int("outputs", len(report.Sync.Files)),
		zap.Int("written", report.Sync.Written()),
		zap.String("out_dir", req.OutDir))
	return report, nil
}

// stage copies each input into dir under its basename and rewrites the
// copy's package declaration. Returns the staged paths in input order.
func (d *Driver) stage(files []string, dir string, ns *string) ([]string, error) {
	staged := make([]string, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, src := range files {
		base := filepath.Base(src)
		if prev, ok := seen[base]; ok {
			d.Logger.Warn("duplicate basename, later file wins",
				zap.String("file", src), zap.String("shadowed", prev))
		}
		seen[base] = src

		dst := filepath.Join(dir, base)
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		content, err := d.Rewriter.Rewrite(dst, ns)
		if err != nil {
			return nil, err
		}
		d.lint(src, content)
		staged = append(staged, dst)
	}
	return staged, nil
}

func (d *Driver) lint(src, content string) {
	diags, err := linter.Lint([]byte(content))
	if err != nil {
		d.Logger.Debug("lint skipped", zap.String("file", src), zap.Error(err))
		return
	}
	for _, diag := range diags {
		if diag.Severity == linter.SeverityWarning {
			d.Logger.Warn(diag.Message, zap.String("file", src), zap.Uint32("line", diag.Line+1))
		} else {
			d.Logger.Debug(diag.Message, zap.String("file", src), zap.Uint32("line", diag.Line+1))
		}
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read input %s: %w", src, err)
	}
	perm := writeback.DefaultPerm
	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("stage %s: %w", src, err)
	}
	return nil
}
