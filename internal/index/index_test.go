package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/logging"
	"highlight-extractor/internal/models"
	"highlight-extractor/internal/pdfdoc/pdftest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type memStore struct {
	docs map[string][]models.IndexedHighlight
	err  error
}

func (s *memStore) ReplaceDocument(_ context.Context, document string, highlights []models.IndexedHighlight) error {
	if s.err != nil {
		return s.err
	}
	if s.docs == nil {
		s.docs = make(map[string][]models.IndexedHighlight)
	}
	s.docs[document] = highlights
	return nil
}

type lengthEmbedder struct {
	err error
}

func (e *lengthEmbedder) EmbedHighlights(_ context.Context, highlights []models.IndexedHighlight, progressFunc func(int, int)) error {
	if e.err != nil {
		return e.err
	}
	for i := range highlights {
		highlights[i].Embedding = []float64{float64(len(highlights[i].Highlight.Text))}
		progressFunc(i+1, len(highlights))
	}
	return nil
}

var (
	first  = pdftest.Line{X: 72, Y: 700, Text: "Hello highlighted world"}
	second = pdftest.Line{X: 72, Y: 600, Text: "another marked line"}
)

func writeInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := pdftest.Build(
		pdftest.Page{
			Lines: []pdftest.Line{first},
			Annots: []pdftest.Annot{
				{Subtype: "Highlight", QuadPoints: first.Quad(6, 17)},
			},
		},
		pdftest.Page{
			Lines: []pdftest.Line{second},
			Annots: []pdftest.Annot{
				{Subtype: "Highlight", QuadPoints: second.Quad(8, 14)},
			},
		},
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), doc, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("broken"), 0o644))
	return dir
}

func TestIndexer_Index(t *testing.T) {
	dir := writeInput(t)
	store := &memStore{}
	logger := logging.NewTestLogger()

	ix := New(batch.NewRunner(nil, nil, 1, ""), &lengthEmbedder{}, store, logger.Logger)
	report, err := ix.Index(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Highlights)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, filepath.Join(dir, "broken.pdf"), report.Errors[0].Path)

	abs, err := filepath.Abs(filepath.Join(dir, "notes.pdf"))
	require.NoError(t, err)
	stored := store.docs[abs]
	require.Len(t, stored, 2)

	assert.Equal(t, models.Highlight{Page: 1, Text: "highlighted"}, stored[0].Highlight)
	assert.Equal(t, 0, stored[0].Position)
	assert.Equal(t, []float64{11}, stored[0].Embedding)
	assert.Equal(t, models.Highlight{Page: 2, Text: "marked"}, stored[1].Highlight)
	assert.Equal(t, 1, stored[1].Position)
	assert.Equal(t, report.RunID, stored[1].RunID)

	logger.AssertLogged(t, zapcore.ErrorLevel, "document not indexed")
}

func TestIndexer_WithoutEmbedder(t *testing.T) {
	store := &memStore{}
	ix := New(batch.NewRunner(nil, nil, 1, ""), nil, store, nil)

	_, err := ix.Index(context.Background(), writeInput(t))
	require.NoError(t, err)
	for _, hs := range store.docs {
		for _, h := range hs {
			assert.Nil(t, h.Embedding)
		}
	}
}

func TestIndexer_DocumentErrors(t *testing.T) {
	boom := errors.New("boom")
	dir := writeInput(t)
	path := filepath.Join(dir, "notes.pdf")

	t.Run("embedding", func(t *testing.T) {
		ix := New(batch.NewRunner(nil, nil, 1, ""), &lengthEmbedder{err: boom}, &memStore{}, nil)
		_, err := ix.IndexDocument(context.Background(), "run", path)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("store", func(t *testing.T) {
		ix := New(batch.NewRunner(nil, nil, 1, ""), nil, &memStore{err: boom}, nil)
		_, err := ix.IndexDocument(context.Background(), "run", path)
		assert.ErrorIs(t, err, boom)
	})
}

func TestIndexer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &memStore{}
	report, err := New(batch.NewRunner(nil, nil, 1, ""), nil, store, nil).Index(ctx, writeInput(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Processed)
	assert.Empty(t, store.docs)
}
