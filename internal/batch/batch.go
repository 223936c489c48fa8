// Package batch runs highlight extraction over a directory of PDF files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"highlight-extractor/internal/logging"
	"highlight-extractor/internal/metrics"
	"highlight-extractor/internal/output"
	"highlight-extractor/internal/pdfdoc"
	"highlight-extractor/internal/processor"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DocumentError records the failure of a single document
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Report summarizes a batch run
type Report struct {
	RunID      string
	Processed  int
	Failed     int
	Highlights int
	Errors     []*DocumentError
}

// Err joins the per-document errors, or returns nil if every document succeeded
func (r *Report) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Runner extracts highlights from PDF files into text files
type Runner struct {
	Processor *processor.PDFProcessor
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	Workers   int
	Suffix    string
}

// NewRunner creates a runner. A nil logger discards output and nil metrics
// record nothing.
func NewRunner(logger *logging.Logger, m *metrics.Metrics, workers int, suffix string) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		Processor: processor.NewPDFProcessor(logger.Named("processor")),
		Logger:    logger,
		Metrics:   m,
		Workers:   workers,
		Suffix:    suffix,
	}
}

// Discover lists the PDF files directly inside dir, sorted by name.
// Symlinks are followed; dangling links and directories are skipped.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if !output.IsPDF(entry.Name()) {
			continue
		}
		// Stat follows symlinks, so a link to a PDF is processed too
		path := filepath.Join(dir, entry.Name())
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run processes every PDF in inDir and writes one text file per document to
// outDir. A failing document is logged and counted without stopping the
// batch; the returned error covers only problems with the directories
// themselves. Cancelling ctx stops new documents from being scheduled.
func (r *Runner) Run(ctx context.Context, inDir, outDir string) (*Report, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths, err := Discover(inDir)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, report.RunID)
	r.Logger.Info(ctx, "starting batch",
		zap.String("input", inDir), zap.String("output", outDir),
		zap.Int("documents", len(paths)), zap.Int("workers", r.Workers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.Workers)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			n, err := r.ProcessFile(ctx, path, output.PathFor(path, outDir, r.Suffix))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, &DocumentError{Path: path, Err: err})
				return nil
			}
			report.Processed++
			report.Highlights += n
			return nil
		})
	}
	g.Wait()

	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].Path < report.Errors[j].Path
	})

	r.Logger.Info(ctx, "batch finished",
		zap.Int("processed", report.Processed), zap.Int("failed", report.Failed),
		zap.Int("highlights", report.Highlights))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// ProcessFile extracts the highlights of input into the text file outPath.
// On failure no output file is left behind.
func (r *Runner) ProcessFile(ctx context.Context, input, outPath string) (int, error) {
	ctx = logging.WithDocument(ctx, input)
	start := time.Now()

	n, err := r.processFile(ctx, input, outPath)
	r.Metrics.ObserveDocument(n, time.Since(start), err)
	if err != nil {
		r.Logger.Error(ctx, "document failed", zap.Error(err))
		return 0, err
	}

	r.Logger.Info(ctx, "document processed",
		zap.Int("highlights", n), zap.String("output", outPath),
		zap.Duration("elapsed", time.Since(start)))
	return n, nil
}

func (r *Runner) processFile(ctx context.Context, input, outPath string) (int, error) {
	out, err := output.Create(outPath)
	if err != nil {
		return 0, err
	}

	n, err := r.Extract(ctx, input, out)
	if err != nil {
		out.Abort()
		return 0, err
	}
	if err := out.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Extract streams the highlights of the PDF at input to sink
func (r *Runner) Extract(ctx context.Context, input string, sink processor.Sink) (int, error) {
	doc, err := pdfdoc.Open(input)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	r.Logger.Debug(ctx, "processing document", zap.Int("pages", doc.NumPage()))
	return r.Processor.ProcessDocument(ctx, doc, sink)
}
