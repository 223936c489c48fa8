// Package output writes reconstructed highlights as plain text, one line per
// highlight.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"highlight-extractor/internal/models"
)

// DefaultSuffix is appended to the input base name to form the output name
const DefaultSuffix = "_highlights"

// IsPDF reports whether name has a ".pdf" extension, in any case
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// PathFor returns the output file for input inside outDir: the input base
// name with suffix added and the extension replaced by ".txt".
func PathFor(input, outDir, suffix string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+suffix+".txt")
}

// Writer writes highlights to an io.Writer
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHighlight writes the highlight text followed by a newline
func (w *Writer) WriteHighlight(h models.Highlight) error {
	if _, err := w.w.WriteString(h.Text); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// File writes highlights to a temporary file that replaces the target only
// on Commit, so a failed document never leaves partial output behind.
type File struct {
	*Writer
	f    *os.File
	path string
}

// Create starts a new output file at path
func Create(path string) (*File, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &File{Writer: NewWriter(f), f: f, path: path}, nil
}

// Path returns the final output path
func (f *File) Path() string {
	return f.path
}

// Commit flushes and moves the file into place
func (f *File) Commit() error {
	if err := f.Flush(); err != nil {
		f.Abort()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := f.f.Chmod(0o644); err != nil {
		f.Abort()
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := f.f.Close(); err != nil {
		os.Remove(f.f.Name())
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(f.f.Name(), f.path); err != nil {
		os.Remove(f.f.Name())
		return fmt.Errorf("failed to rename output: %w", err)
	}
	return nil
}

// Abort discards the temporary file
func (f *File) Abort() {
	f.f.Close()
	os.Remove(f.f.Name())
}
