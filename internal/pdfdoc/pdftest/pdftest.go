// Package pdftest builds small PDF files for tests: Courier text lines at
// fixed positions plus annotations with arbitrary QuadPoints.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// FontSize of every text line
	FontSize = 12.0
	// GlyphWidth is the advance of every Courier glyph at FontSize
	GlyphWidth = 600.0 / 1000 * FontSize
)

// Line is a run of text drawn with its baseline starting at (X, Y)
type Line struct {
	X, Y float64
	Text string
}

// Annot is a page annotation; QuadPoints is written only when non-empty
type Annot struct {
	Subtype    string
	QuadPoints []float64
}

// Page describes one page
type Page struct {
	Lines  []Line
	Annots []Annot
}

// GlyphX returns the left edge of the i-th glyph of l
func (l Line) GlyphX(i int) float64 {
	return l.X + float64(i)*GlyphWidth
}

// Quad returns QuadPoints, upper-left first, covering glyphs [from, to) of l
func (l Line) Quad(from, to int) []float64 {
	x0, x1 := l.GlyphX(from)-0.5, l.GlyphX(to)-0.5
	y0, y1 := l.Y-3, l.Y+FontSize
	return []float64{x0, y1, x1, y1, x0, y0, x1, y0}
}

// Build renders pages into a complete PDF file
func Build(pages ...Page) []byte {
	// 1 catalog, 2 page tree, 3 font, then per page: page, contents, annots...
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in once kids are known
		fontObject(),
	}

	var kids []string
	for _, p := range pages {
		pageNum := len(objs) + 1
		contentNum := pageNum + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		var annotRefs []string
		for i := range p.Annots {
			annotRefs = append(annotRefs, fmt.Sprintf("%d 0 R", contentNum+1+i))
		}

		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R /Annots [%s] >>",
			contentNum, strings.Join(annotRefs, " ")))
		objs = append(objs, contentStream(p.Lines))
		for _, a := range p.Annots {
			objs = append(objs, annotObject(a))
		}
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func fontObject() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = "600"
	}
	return fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " "))
}

func contentStream(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", FontSize, l.X, l.Y, escape(l.Text))
	}
	data := b.String()
	return fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(data), data)
}

func annotObject(a Annot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Annot /Subtype /%s /Rect [0 0 612 792]", a.Subtype)
	if len(a.QuadPoints) > 0 {
		nums := make([]string, len(a.QuadPoints))
		for i, v := range a.QuadPoints {
			nums[i] = fmt.Sprintf("%g", v)
		}
		fmt.Fprintf(&b, " /QuadPoints [%s]", strings.Join(nums, " "))
	}
	b.WriteString(" >>")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
