package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"highlight-extractor/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects to the database named by HIGHLIGHTS_TEST_POSTGRES. The
// database needs the pgvector extension available.
func testDB(t *testing.T, withEmbeddings bool) *DB {
	t.Helper()
	url := os.Getenv("HIGHLIGHTS_TEST_POSTGRES")
	if url == "" {
		t.Skip("HIGHLIGHTS_TEST_POSTGRES not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Initialize(ctx, withEmbeddings))
	return db
}

func TestEmbeddingParam(t *testing.T) {
	assert.Nil(t, embeddingParam(nil))
	assert.Nil(t, embeddingParam([]float64{}))
	assert.Equal(t, []float64{1, 2}, embeddingParam([]float64{1, 2}))
}

func TestDB_ReplaceAndQuery(t *testing.T) {
	db := testDB(t, true)
	ctx := context.Background()
	document := "test-" + uuid.NewString() + ".pdf"
	runID := uuid.NewString()

	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM highlights WHERE document = $1`, document)
	})

	first := []models.IndexedHighlight{
		{RunID: runID, Position: 0, Highlight: models.Highlight{Page: 1, Text: "stale passage"}},
	}
	require.NoError(t, db.ReplaceDocument(ctx, document, first))

	second := []models.IndexedHighlight{
		{RunID: runID, Position: 0, Highlight: models.Highlight{Page: 1, Text: "appraisal theory"}, Embedding: []float64{1, 0, 0}},
		{RunID: runID, Position: 1, Highlight: models.Highlight{Page: 4, Text: "emotion regulation"}, Embedding: []float64{0, 1, 0}},
		{RunID: runID, Position: 2, Highlight: models.Highlight{Page: 5, Text: "no embedding"}},
	}
	require.NoError(t, db.ReplaceDocument(ctx, document, second))

	docs, err := db.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, docs[document])

	found, err := db.SearchText(ctx, "STALE", 10)
	require.NoError(t, err)
	for _, h := range found {
		assert.NotEqual(t, document, h.Document)
	}

	similar, err := db.QuerySimilar(ctx, []float64{0, 0.9, 0.1}, 50)
	require.NoError(t, err)
	var ours []models.IndexedHighlight
	for _, h := range similar {
		if h.Document == document {
			ours = append(ours, h)
		}
	}
	require.Len(t, ours, 2)
	assert.Equal(t, "emotion regulation", ours[0].Highlight.Text)
	assert.Equal(t, 4, ours[0].Highlight.Page)
	assert.Equal(t, runID, ours[0].RunID)
}

func TestSchema(t *testing.T) {
	without := strings.Join(schema(false), "\n")
	assert.NotContains(t, without, "EXTENSION")
	assert.NotContains(t, without, "vector")
	assert.Contains(t, without, "embedding FLOAT8[]")

	with := schema(true)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", with[0])
	assert.Equal(t, schema(false), with[1:])
}

func TestDB_WithoutEmbeddings(t *testing.T) {
	db := testDB(t, false)
	ctx := context.Background()
	document := "test-" + uuid.NewString() + ".pdf"
	t.Cleanup(func() {
		db.Pool.Exec(context.Background(), `DELETE FROM highlights WHERE document = $1`, document)
	})

	highlights := []models.IndexedHighlight{
		{RunID: "r", Position: 0, Highlight: models.Highlight{Page: 2, Text: "plain passage " + document}},
	}
	require.NoError(t, db.ReplaceDocument(ctx, document, highlights))

	found, err := db.SearchText(ctx, document, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 2, found[0].Highlight.Page)
}
