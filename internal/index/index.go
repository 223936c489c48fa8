// Package index extracts highlights from a directory of PDFs and stores them,
// optionally with embeddings, for later search.
package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/logging"
	"highlight-extractor/internal/models"
	"highlight-extractor/internal/processor"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Embedder fills in highlight embeddings
type Embedder interface {
	EmbedHighlights(ctx context.Context, highlights []models.IndexedHighlight, progressFunc func(processed, total int)) error
}

// Store persists the highlights of a document, replacing earlier ones
type Store interface {
	ReplaceDocument(ctx context.Context, document string, highlights []models.IndexedHighlight) error
}

// Indexer runs the extract, embed and store pipeline
type Indexer struct {
	Runner   *batch.Runner
	Embedder Embedder
	Store    Store
	Logger   *logging.Logger
}

// New creates an indexer. embedder may be nil to store highlights without
// embeddings.
func New(runner *batch.Runner, embedder Embedder, store Store, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Indexer{Runner: runner, Embedder: embedder, Store: store, Logger: logger}
}

// Index stores the highlights of every PDF in dir. Documents are keyed by
// absolute path. As with extraction, a failing document is recorded in the
// report and the run continues.
func (ix *Indexer) Index(ctx context.Context, dir string) (*batch.Report, error) {
	paths, err := batch.Discover(dir)
	if err != nil {
		return nil, err
	}

	report := &batch.Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, report.RunID)
	ix.Logger.Info(ctx, "starting index run", zap.String("input", dir), zap.Int("documents", len(paths)))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n, err := ix.IndexDocument(ctx, report.RunID, path)
		if err != nil {
			ix.Logger.Error(logging.WithDocument(ctx, path), "document not indexed", zap.Error(err))
			report.Failed++
			report.Errors = append(report.Errors, &batch.DocumentError{Path: path, Err: err})
			continue
		}
		report.Processed++
		report.Highlights += n
	}

	ix.Logger.Info(ctx, "index run finished",
		zap.Int("processed", report.Processed), zap.Int("failed", report.Failed),
		zap.Int("highlights", report.Highlights))
	return report, nil
}

// IndexDocument extracts, embeds and stores the highlights of one PDF
func (ix *Indexer) IndexDocument(ctx context.Context, runID, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve path: %w", err)
	}
	ctx = logging.WithDocument(ctx, abs)

	highlights, err := ix.Collect(ctx, runID, abs)
	if err != nil {
		return 0, err
	}

	if ix.Embedder != nil && len(highlights) > 0 {
		start := time.Now()
		progressFunc := func(processed, total int) {
			ix.Logger.Debug(ctx, "embedding progress",
				zap.Int("processed", processed), zap.Int("total", total))
		}
		if err := ix.Embedder.EmbedHighlights(ctx, highlights, progressFunc); err != nil {
			return 0, fmt.Errorf("failed to create embeddings: %w", err)
		}
		ix.Logger.Debug(ctx, "embeddings created", zap.Duration("elapsed", time.Since(start)))
	}

	if err := ix.Store.ReplaceDocument(ctx, abs, highlights); err != nil {
		return 0, err
	}

	ix.Logger.Info(ctx, "document indexed", zap.Int("highlights", len(highlights)))
	return len(highlights), nil
}

// Collect extracts the highlights of one PDF in encounter order
func (ix *Indexer) Collect(ctx context.Context, runID, path string) ([]models.IndexedHighlight, error) {
	var highlights []models.IndexedHighlight
	sink := processor.SinkFunc(func(h models.Highlight) error {
		highlights = append(highlights, models.IndexedHighlight{
			RunID:     runID,
			Document:  path,
			Position:  len(highlights),
			Highlight: h,
		})
		return nil
	})

	if _, err := ix.Runner.Extract(ctx, path, sink); err != nil {
		return nil, err
	}
	return highlights, nil
}
