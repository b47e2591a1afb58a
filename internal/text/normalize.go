package text

import "strings"

// Normalize flattens s into a single line: newlines become spaces, runs of
// whitespace collapse into one space and the ends are trimmed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}
