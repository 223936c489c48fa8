package processor

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

var (
	// Isolated letters other than a/A, and empty bracket pairs. \b is
	// Unicode-aware here: the "x" in "éx" is not isolated.
	noiseRe = regexp2.MustCompile(`\b[b-zB-Z]\b|\[\]`, regexp2.None)

	spaceRunRe = regexp.MustCompile(` {2,}`)
)

// CleanText strips stray single letters and "[]" artifacts, collapses runs
// of spaces and trims the result. Applying it twice gives the same result as
// applying it once.
func CleanText(text string) string {
	// removing "[]" from "[x]" can expose a new match, so repeat until stable
	for {
		stripped, err := noiseRe.Replace(text, "", -1, -1)
		if err != nil || stripped == text {
			break
		}
		text = stripped
	}

	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
