// Command highlights extracts highlighted passages from PDF files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"highlight-extractor/internal/config"
	"highlight-extractor/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

// app carries what the root command sets up for its subcommands
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "highlights",
		Short: "Extract highlighted passages from PDF files",
		Long: `highlights reads the Highlight annotations of PDF documents and writes the
highlighted passages as plain text, one line per highlight, rebuilding words
split by line wraps and hyphenation.

Settings come from the YAML file given with --config and from environment
variables prefixed with HIGHLIGHTS_, e.g. HIGHLIGHTS_BATCH_WORKERS=4.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(
		newExtractCmd(a),
		newFileCmd(a),
		newWatchCmd(a),
		newIndexCmd(a),
		newQueryCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
