package processor

import (
	"math"

	"highlight-extractor/internal/models"
)

// IsHighlight reports whether an annotation takes part in extraction
func IsHighlight(a models.Annotation) bool {
	return a.Type == models.AnnotationHighlight && len(a.Vertices) > 0
}

// QuadRegions groups vertices four at a time, in order. A trailing group
// with fewer than four points is dropped.
func QuadRegions(vertices []models.Point) []models.QuadRegion {
	quads := make([]models.QuadRegion, 0, len(vertices)/4)
	for i := 0; i+4 <= len(vertices); i += 4 {
		var q models.QuadRegion
		copy(q[:], vertices[i:i+4])
		quads = append(quads, q)
	}
	return quads
}

// NormalizeQuad returns the axis-aligned rectangle spanned by the first and
// fourth points of a quad, the diagonal of a highlight quad.
func NormalizeQuad(q models.QuadRegion) models.Rect {
	return models.Rect{
		X0: math.Min(q[0].X, q[3].X),
		Y0: math.Min(q[0].Y, q[3].Y),
		X1: math.Max(q[0].X, q[3].X),
		Y1: math.Max(q[0].Y, q[3].Y),
	}
}
