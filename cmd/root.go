package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/pbgen/internal/logger"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	return logger.New(o.logLevel, o.logFormat)
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "pbgen",
		Short: "pbgen: namespace-rewriting protoc driver",
		Long: `pbgen stages .proto files, rewrites their package declaration,
runs protoc over the staged copies, patches the generated sources and copies
them into a destination directory, touching only files whose content changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&o.logFormat, "log-format", "console", "Log format (console, json)")

	root.AddCommand(newGenerateCmd(o))
	return root
}

var rootCmd = newRootCmd()

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pbgen:", err)
		os.Exit(1)
	}
}
