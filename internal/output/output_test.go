package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"highlight-extractor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFor(t *testing.T) {
	tests := []struct {
		input, outDir, suffix string
		want                  string
	}{
		{"/in/paper.pdf", "/out", DefaultSuffix, "/out/paper_highlights.txt"},
		{"/in/Brosch et al._2013.PDF", "/out", DefaultSuffix, "/out/Brosch et al._2013_highlights.txt"},
		{"notes.v2.pdf", "out", "", "out/notes.v2.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), PathFor(tt.input, filepath.FromSlash(tt.outDir), tt.suffix))
		})
	}
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("a.pdf"))
	assert.True(t, IsPDF("a.PDF"))
	assert.True(t, IsPDF("a.Pdf"))
	assert.False(t, IsPDF("a.pdf.txt"))
	assert.False(t, IsPDF("pdf"))
	assert.False(t, IsPDF("a.epub"))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHighlight(models.Highlight{Page: 1, Text: "first passage"}))
	require.NoError(t, w.WriteHighlight(models.Highlight{Page: 3, Text: "über zweite"}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "first passage\nüber zweite\n", buf.String())
}

func TestFile_Commit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc_highlights.txt")

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteHighlight(models.Highlight{Page: 1, Text: "kept"}))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "target must not exist before commit")

	require.NoError(t, f.Commit())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFile_EmptyCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_highlights.txt")
	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Commit())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFile_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "failed_highlights.txt")

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteHighlight(models.Highlight{Page: 1, Text: "partial"}))
	f.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
