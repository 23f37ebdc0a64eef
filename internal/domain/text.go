package domain

import "strings"

// CollapseWhitespace reduces any run of whitespace to a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CapRunes limits s to max runes, appending marker when truncation
// happened. Counting runes instead of bytes keeps multi-byte characters
// intact at the boundary.
func CapRunes(s string, max int, marker string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + marker
}
