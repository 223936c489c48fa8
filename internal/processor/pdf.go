// internal/processor/pdf.go
package processor

import (
	"context"
	"fmt"

	"highlight-extractor/internal/logging"
	"highlight-extractor/internal/models"

	"go.uber.org/zap"
)

// Document is a paged PDF source. Page numbers start at 1.
type Document interface {
	NumPage() int
	Page(num int) (Page, error)
}

// Page exposes the annotations of one page and a word lookup by rectangle.
// Words must be returned in reading order; the processor never reorders them.
type Page interface {
	Annotations() ([]models.Annotation, error)
	Words(rect models.Rect) ([]models.Word, error)
}

// Sink receives highlights as soon as they are reconstructed
type Sink interface {
	WriteHighlight(h models.Highlight) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(h models.Highlight) error

// WriteHighlight calls f(h)
func (f SinkFunc) WriteHighlight(h models.Highlight) error {
	return f(h)
}

// PDFProcessor turns highlight annotations into cleaned passages
type PDFProcessor struct {
	Logger *logging.Logger
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger *logging.Logger) *PDFProcessor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PDFProcessor{Logger: logger}
}

// ProcessDocument scans every page of doc in order and writes one highlight per
// qualifying annotation to sink. It returns the number of highlights written.
func (p *PDFProcessor) ProcessDocument(ctx context.Context, doc Document, sink Sink) (int, error) {
	count := 0
	for num := 1; num <= doc.NumPage(); num++ {
		page, err := doc.Page(num)
		if err != nil {
			return count, fmt.Errorf("failed to read page %d: %w", num, err)
		}

		n, err := p.ProcessPage(ctx, num, page, sink)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

// ProcessPage writes the highlights of a single page to sink
func (p *PDFProcessor) ProcessPage(ctx context.Context, num int, page Page, sink Sink) (int, error) {
	annots, err := page.Annotations()
	if err != nil {
		return 0, fmt.Errorf("failed to read annotations on page %d: %w", num, err)
	}

	count := 0
	for i, annot := range annots {
		if !IsHighlight(annot) {
			continue
		}

		text, ok, err := p.ProcessAnnotation(ctx, page, annot)
		if err != nil {
			return count, fmt.Errorf("failed to process annotation %d on page %d: %w", i, num, err)
		}
		if !ok {
			p.Logger.Debug(ctx, "highlight produced no text", zap.Int("page", num), zap.Int("annotation", i))
			continue
		}

		if err := sink.WriteHighlight(models.Highlight{Page: num, Text: text}); err != nil {
			return count, fmt.Errorf("failed to write highlight: %w", err)
		}
		count++
	}
	return count, nil
}

// ProcessAnnotation reconstructs the passage covered by one highlight
// annotation. ok is false when none of its regions yields text.
func (p *PDFProcessor) ProcessAnnotation(ctx context.Context, page Page, annot models.Annotation) (string, bool, error) {
	var lines []string
	for _, quad := range QuadRegions(annot.Vertices) {
		rect := NormalizeQuad(quad)
		if rect.IsEmpty() {
			p.Logger.Debug(ctx, "skipping degenerate region",
				zap.Float64("x0", rect.X0), zap.Float64("y0", rect.Y0),
				zap.Float64("x1", rect.X1), zap.Float64("y1", rect.Y1))
			continue
		}

		words, err := page.Words(rect)
		if err != nil {
			return "", false, fmt.Errorf("failed to look up words: %w", err)
		}

		if cleaned := CleanText(JoinWords(words)); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}

	if len(annot.Vertices)%4 != 0 {
		p.Logger.Debug(ctx, "ignoring trailing vertices", zap.Int("vertices", len(annot.Vertices)))
	}

	text, ok := MergePassage(lines)
	return text, ok, nil
}
