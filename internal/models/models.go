package models

// Word represents a positioned token from a page's text layer
type Word struct {
	XStart float64 `json:"x_start"`
	XEnd   float64 `json:"x_end"`
	Y      float64 `json:"y"`
	Text   string  `json:"text"`
}

// Point is a 2D point in page space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// QuadRegion is one quadrilateral of a highlight annotation
type QuadRegion [4]Point

// Rect is an axis-aligned rectangle, (X0, Y0) being the minimum corner
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent of the rectangle
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether p lies inside the rectangle, edges included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// AnnotationHighlight is the annotation type that carries highlighted passages
const AnnotationHighlight = "Highlight"

// Annotation is a page annotation with its type and vertex geometry
type Annotation struct {
	Type     string  `json:"type"`
	Vertices []Point `json:"vertices"`
}

// Highlight is one reconstructed passage
type Highlight struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// IndexedHighlight is a highlight stored in the search index
type IndexedHighlight struct {
	ID        int       `json:"id"`
	RunID     string    `json:"run_id"`
	Document  string    `json:"document"`
	Position  int       `json:"position"`
	Highlight Highlight `json:"highlight"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// Answer represents the response from the LLM
type Answer struct {
	Text      string             `json:"text"`
	Sources   []IndexedHighlight `json:"sources"`
	Timestamp string             `json:"timestamp"`
}
