// Package watch extracts highlights from PDF files as they appear in a
// directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/logging"
	"highlight-extractor/internal/output"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Watcher runs an initial batch over a directory, then processes every PDF
// created or rewritten there once it has been quiet for the settle delay.
type Watcher struct {
	runner *batch.Runner
	logger *logging.Logger
	inDir  string
	outDir string
	settle time.Duration
}

// New creates a watcher for inDir writing into outDir
func New(runner *batch.Runner, logger *logging.Logger, inDir, outDir string, settle time.Duration) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		runner: runner,
		logger: logger,
		inDir:  inDir,
		outDir: outDir,
		settle: settle,
	}
}

// Run blocks until ctx is cancelled or the watcher fails
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	defer fw.Close()

	// watch before the initial pass so files dropped during it are not missed
	if err := fw.Add(w.inDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.inDir, err)
	}

	report, err := w.runner.Run(ctx, w.inDir, w.outDir)
	if err != nil {
		return err
	}
	w.logger.Info(ctx, "initial batch done",
		zap.Int("processed", report.Processed), zap.Int("failed", report.Failed))

	done := make(chan struct{})
	defer close(done)
	debounce := newDebouncer(w.settle, done)
	defer debounce.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !output.IsPDF(event.Name) {
				continue
			}
			debounce.touch(event.Name)

		case s := <-debounce.ready:
			if debounce.settle(s) {
				w.process(ctx, s.path)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return
	}
	// failures are logged and counted by the runner
	_, _ = w.runner.ProcessFile(ctx, path, output.PathFor(path, w.outDir, w.runner.Suffix))
}
