package main

import (
	"fmt"
	"os"
	"path/filepath"

	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/output"

	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		workers int
		suffix  string
	)

	cmd := &cobra.Command{
		Use:   "extract <input-dir> <output-dir>",
		Short: "Extract highlights from every PDF in a directory",
		Long: `Extract highlights from every .pdf file directly inside input-dir and write
<name>_highlights.txt for each into output-dir, which is created if needed.
A document that cannot be read is reported and skipped; the command exits
non-zero if any document failed.

Examples:
  highlights extract ~/papers ~/papers/highlights
  highlights extract --workers 8 ./in ./out`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("workers") {
				a.cfg.Batch.Workers = workers
			}
			if cmd.Flags().Changed("suffix") {
				a.cfg.Batch.Suffix = suffix
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			runner := batch.NewRunner(a.logger, nil, a.cfg.Batch.Workers, a.cfg.Batch.Suffix)
			report, err := runner.Run(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			printReport(cmd, report)
			return report.Err()
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of documents processed in parallel")
	cmd.Flags().StringVar(&suffix, "suffix", output.DefaultSuffix, "suffix added to output file names")
	return cmd
}

func newFileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file <pdf> [output]",
		Short: "Extract highlights from a single PDF",
		Long: `Extract highlights from one PDF. Without an output argument the text is
written next to the PDF as <name>_highlights.txt; use - for stdout.

Examples:
  highlights file paper.pdf
  highlights file paper.pdf - | less`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			runner := batch.NewRunner(a.logger, nil, 1, a.cfg.Batch.Suffix)

			if len(args) == 2 && args[1] == "-" {
				w := output.NewWriter(cmd.OutOrStdout())
				if _, err := runner.Extract(cmd.Context(), input, w); err != nil {
					return err
				}
				return w.Flush()
			}

			outPath := output.PathFor(input, filepath.Dir(input), a.cfg.Batch.Suffix)
			if len(args) == 2 {
				outPath = args[1]
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			n, err := runner.ProcessFile(cmd.Context(), input, outPath)
			if err != nil {
				return err
			}
			cmd.Printf("%d highlights written to %s\n", n, outPath)
			return nil
		},
	}
	return cmd
}

func printReport(cmd *cobra.Command, report *batch.Report) {
	cmd.Printf("Processed %d documents, %d highlights", report.Processed, report.Highlights)
	if report.Failed > 0 {
		cmd.Printf(", %d failed", report.Failed)
	}
	cmd.Println()
	for _, e := range report.Errors {
		cmd.PrintErrf("  %s\n", e)
	}
}
