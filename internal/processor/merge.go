package processor

import "strings"

// MergePassage joins the cleaned lines of one annotation. A line ending in
// "-" is treated as hyphenated: the hyphen is dropped and the next line is
// appended without a space. ok is false when nothing is left to emit.
func MergePassage(lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}

	merged := " "
	for i, line := range lines {
		if i > 0 && strings.HasSuffix(merged, "-") {
			merged = merged[:len(merged)-1] + strings.TrimLeft(line, " \t\r\n")
			continue
		}
		if i > 0 {
			merged += " "
		}
		merged += strings.TrimSpace(line)
	}

	merged = strings.TrimSpace(merged)
	return merged, merged != ""
}
