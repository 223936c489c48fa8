// Package pdfdoc reads highlight annotations and positioned words from PDF
// files using github.com/ledongthuc/pdf.
//
// Coordinates stay in PDF user space (origin bottom-left, y growing upward)
// for both annotation vertices and words, so rectangles built from one can be
// used to query the other.
package pdfdoc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode"

	"highlight-extractor/internal/models"
	"highlight-extractor/internal/processor"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

const (
	// Gap between glyphs, as a fraction of font size, that starts a new word
	WordGapRatio = 0.15
	// Vertical shift, as a fraction of font size, that starts a new word
	LineShiftRatio = 0.5
	// Height of a glyph's reference point above the baseline, as a fraction
	// of font size. A glyph belongs to a rectangle when this point is inside.
	GlyphCenterRatio = 0.3
)

// ErrCorrupt is returned when the PDF parser fails on malformed content
var ErrCorrupt = errors.New("corrupt pdf")

// Document is an open PDF file
type Document struct {
	closer  io.Closer
	reader  *pdf.Reader
	numPage int
}

// Open opens the PDF file at path
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	doc, err := NewDocument(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.closer = f
	return doc, nil
}

// NewDocument reads a PDF from r. The caller keeps ownership of r.
func NewDocument(r io.ReaderAt, size int64) (*Document, error) {
	var doc *Document
	err := safely(func() error {
		reader, err := pdf.NewReader(r, size)
		if err != nil {
			return err
		}
		doc = &Document{reader: reader, numPage: reader.NumPage()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return doc, nil
}

// Close releases the underlying file, if Open created it
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// NumPage returns the number of pages
func (d *Document) NumPage() int {
	return d.numPage
}

// Page returns page num, starting at 1
func (d *Document) Page(num int) (processor.Page, error) {
	var page pdf.Page
	err := safely(func() error {
		page = d.reader.Page(num)
		if page.V.IsNull() {
			return fmt.Errorf("page %d not found", num)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Page{page: page}, nil
}

// Page is one page of a Document. Its glyphs are decoded on the first word
// lookup and reused for later ones.
type Page struct {
	page   pdf.Page
	glyphs []pdf.Text
	loaded bool
}

// Annotations returns the page's annotations in /Annots order. Highlight
// quads are rewritten as upper-left, upper-right, lower-left, lower-right so
// that the first and fourth vertices always span the quad's bounding box.
func (p *Page) Annotations() ([]models.Annotation, error) {
	var annots []models.Annotation
	err := safely(func() error {
		arr := p.page.V.Key("Annots")
		for i := 0; i < arr.Len(); i++ {
			v := arr.Index(i)
			if v.Kind() != pdf.Dict {
				continue
			}
			annots = append(annots, models.Annotation{
				Type:     v.Key("Subtype").Name(),
				Vertices: quadVertices(floatArray(v.Key("QuadPoints"))),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return annots, nil
}

// Words returns the words whose glyphs fall inside rect, in content order
func (p *Page) Words(rect models.Rect) ([]models.Word, error) {
	if !p.loaded {
		err := safely(func() error {
			p.glyphs = p.page.Content().Text
			return nil
		})
		if err != nil {
			return nil, err
		}
		p.loaded = true
	}

	var inside []pdf.Text
	for _, g := range p.glyphs {
		center := models.Point{X: g.X + g.W/2, Y: g.Y + g.FontSize*GlyphCenterRatio}
		if rect.Contains(center) {
			inside = append(inside, g)
		}
	}
	return groupWords(inside), nil
}

// groupWords merges consecutive glyphs into words. Whitespace glyphs, a jump
// to another line, or a horizontal gap wider than WordGapRatio of the font
// size end the current word.
func groupWords(glyphs []pdf.Text) []models.Word {
	var (
		words []models.Word
		cur   *models.Word
		text  strings.Builder
		size  float64
	)

	flush := func() {
		if cur != nil && text.Len() > 0 {
			cur.Text = norm.NFKC.String(text.String())
			words = append(words, *cur)
		}
		cur = nil
		text.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}

		if cur != nil {
			gap := g.X - cur.XEnd
			if math.Abs(g.Y-cur.Y) > size*LineShiftRatio || gap > size*WordGapRatio || gap < -size {
				flush()
			}
		}

		if cur == nil {
			cur = &models.Word{XStart: g.X, XEnd: g.X + g.W, Y: g.Y}
			size = g.FontSize
		}
		cur.XEnd = math.Max(cur.XEnd, g.X+g.W)
		text.WriteString(g.S)
	}
	flush()

	return words
}

// quadVertices turns flat QuadPoints into vertices, four per quad. Trailing
// numbers that do not form a whole quad are dropped.
func quadVertices(nums []float64) []models.Point {
	var vertices []models.Point
	for i := 0; i+8 <= len(nums); i += 8 {
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for j := i; j < i+8; j += 2 {
			minX, maxX = math.Min(minX, nums[j]), math.Max(maxX, nums[j])
			minY, maxY = math.Min(minY, nums[j+1]), math.Max(maxY, nums[j+1])
		}
		vertices = append(vertices,
			models.Point{X: minX, Y: maxY},
			models.Point{X: maxX, Y: maxY},
			models.Point{X: minX, Y: minY},
			models.Point{X: maxX, Y: minY},
		)
	}
	return vertices
}

func floatArray(v pdf.Value) []float64 {
	out := make([]float64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, v.Index(i).Float64())
	}
	return out
}

// safely runs fn, turning parser panics into ErrCorrupt
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()
	return fn()
}
