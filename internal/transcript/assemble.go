// Package transcript assembles recognized speech segments into output text.
package transcript

import "strings"

// Assemble trims each segment, collapses internal whitespace, and joins the
// non-empty segments with single spaces. Silence-only input yields "".
func Assemble(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.Join(strings.Fields(segment), " ")
		if segment == "" {
			continue
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, " ")
}
