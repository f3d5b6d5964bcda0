package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/agentic-research/pbgen/api"
	"github.com/agentic-research/pbgen/internal/config"
	"github.com/agentic-research/pbgen/internal/pipeline"
	"github.com/agentic-research/pbgen/internal/protoc"
)

type generateOptions struct {
	root *rootOptions

	outDir         string
	namespace      string
	includes       []string
	protobufModule string
	force          boolish
	lang           string
	parser         string
	configPath     string
	report         *oneOf

	namespaceFromJob bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	o := &generateOptions{root: root, report: newOneOf("text", "text", "json", "none")}
	c := &cobra.Command{
		Use:   "generate [proto-files...]",
		Short: "Rewrite namespaces, run protoc and sync outputs into a directory",
		Example: `  pbgen generate -o src/messages -n hw.trezor.messages -I protob protob/*.proto
  pbgen generate --config pbgen.hcl --force yes protob/messages.proto`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, o)
		},
	}

	f := c.Flags()
	f.StringVarP(&o.outDir, "out-dir", "o", ".", "Destination directory for generated files")
	f.StringVarP(&o.namespace, "namespace", "n", "", "Package to declare in every input (omit to strip it)")
	f.StringArrayVarP(&o.includes, "protoc-include", "I", nil, "Additional protoc include dir (repeatable, default $PROTOC_INCLUDE)")
	f.StringVarP(&o.protobufModule, "protobuf-module", "P", "protobuf", "Protobuf runtime module name (accepted for compatibility)")
	f.VarP(&o.force, "force", "f", "Rewrite every output even if unchanged (1/0, true/false, yes/no, on/off)")
	f.StringVar(&o.lang, "lang", protoc.DefaultLang, "protoc output language (cpp, go, python, ...)")
	f.StringVar(&o.parser, "parser", "regex", "Declaration scanner (regex, treesitter)")
	f.StringVar(&o.configPath, "config", "", "HCL job file with defaults for these flags")
	f.Var(o.report, "report", "Summary printed to stdout (text, json, none)")
	return c
}

func runGenerate(cmd *cobra.Command, args []string, o *generateOptions) error {
	l, err := o.root.logger()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	runID := uuid.NewString()
	l = l.With(zap.String("run_id", runID))

	// The compiler is resolved before any other file is read.
	e, err := config.LoadEnv()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(e)
	if err != nil {
		return err
	}

	if o.configPath != "" {
		job, err := config.LoadJobFile(o.configPath)
		if err != nil {
			return err
		}
		l.Debug("job file", zap.String("path", o.configPath), zap.Stringer("values", job))
		o.merge(cmd.Flags(), job)
	}

	l.Debug("resolved configuration",
		zap.String("protoc", cfg.Protoc),
		zap.Strings("base_includes", cfg.BaseIncludes),
		zap.String("protobuf_module", o.protobufModule))

	req := pipeline.Request{
		Files:       args,
		OutDir:      o.outDir,
		IncludeDirs: o.includes,
		Force:       bool(o.force),
	}
	if len(req.IncludeDirs) == 0 {
		req.IncludeDirs = cfg.DefaultIncludes
	}
	if o.namespaceSet(cmd.Flags()) {
		ns := o.namespace
		req.Namespace = &ns
	}

	d, err := pipeline.New(cfg, pipeline.Options{Lang: o.lang, Parser: o.parser}, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := d.Generate(ctx, req)
	report.RunID = runID
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), o.report.String(), report)
}

// merge applies job file values for every flag not given on the command line.
func (o *generateOptions) merge(flags *pflag.FlagSet, job *config.JobFile) {
	if job.OutDir != nil && !flags.Changed("out-dir") {
		o.outDir = *job.OutDir
	}
	if job.Namespace != nil && !flags.Changed("namespace") {
		o.namespace = *job.Namespace
		o.namespaceFromJob = true
	}
	if len(job.Include) > 0 && !flags.Changed("protoc-include") {
		o.includes = job.Include
	}
	if job.Force != nil && !flags.Changed("force") {
		o.force = boolish(*job.Force)
	}
	if job.Lang != nil && !flags.Changed("lang") {
		o.lang = *job.Lang
	}
	if job.Parser != nil && !flags.Changed("parser") {
		o.parser = *job.Parser
	}
}

func (o *generateOptions) namespaceSet(flags *pflag.FlagSet) bool {
	return flags.Changed("namespace") || o.namespaceFromJob
}

func writeReport(w io.Writer, format string, r api.RunReport) error {
	switch format {
	case "none":
		return nil
	case "json":
		_, err := fmt.Fprintln(w, oj.JSON(reportTree(r), &ojg.Options{Indent: 2, Sort: true}))
		return err
	default:
		for _, f := range r.Sync.Files {
			if _, err := fmt.Fprintf(w, "%-9s %s\n", f.Action, f.Name); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%d of %d files written\n", r.Sync.Written(), len(r.Sync.Files))
		return err
	}
}

// reportTree converts a report into the generic map/slice form oj writes
// without reflection.
func reportTree(r api.RunReport) map[string]any {
	files := make([]any, 0, len(r.Sync.Files))
	for _, f := range r.Sync.Files {
		files = append(files, map[string]any{
			"name":   f.Name,
			"action": string(f.Action),
			"sha256": f.SHA256,
		})
	}
	return map[string]any{
		"run_id":    r.RunID,
		"inputs":    anySlice(r.Inputs),
		"patched":   anySlice(r.Patched),
		"formatted": anySlice(r.Formatted),
		"written":   int64(r.Sync.Written()),
		"files":     files,
	}
}

func anySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
