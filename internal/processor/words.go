package processor

import (
	"math"
	"sort"
	"strings"

	"highlight-extractor/internal/models"
)

const (
	// Vertical distance above which the next word starts a new line
	LineBreakThreshold = 5.0
	// Gaps below this fraction of the median gap join words without a space
	TightGapRatio = 0.3
	// Median used when a word list has no gaps to measure
	DefaultMedianGap = 1.0
)

// JoinWords concatenates the words of one region, deciding per adjacent
// pair between a line break, no separator, or a single space.
func JoinWords(words []models.Word) string {
	if len(words) == 0 {
		return ""
	}

	median := medianGap(words)

	var b strings.Builder
	b.WriteString(words[0].Text)
	for i := 1; i < len(words); i++ {
		prev, cur := words[i-1], words[i]
		gap := cur.XStart - prev.XEnd

		switch {
		case math.Abs(cur.Y-prev.Y) > LineBreakThreshold:
			b.WriteByte(' ')
		case gap < TightGapRatio*median:
			// split glyphs of one word
		default:
			b.WriteByte(' ')
		}
		b.WriteString(cur.Text)
	}
	return b.String()
}

// medianGap returns the median horizontal gap between adjacent words
func medianGap(words []models.Word) float64 {
	if len(words) < 2 {
		return DefaultMedianGap
	}

	gaps := make([]float64, 0, len(words)-1)
	for i := 1; i < len(words); i++ {
		gaps = append(gaps, words[i].XStart-words[i-1].XEnd)
	}
	sort.Float64s(gaps)

	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}
