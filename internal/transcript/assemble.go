// Package transcript assembles finalized speech-recognition segments.
package transcript

import "strings"

// Append adds one finalized segment to an answer buffer, separated by a
// single trailing space. Interim hypotheses must never pass through here.
func Append(buffer string, segment string) string {
	segment = Clean(segment)
	if segment == "" {
		return buffer
	}
	return buffer + segment + " "
}

// Assemble joins finalized segments into one normalized answer string.
func Assemble(finalSegments []string) string {
	var buffer string
	for _, segment := range finalSegments {
		buffer = Append(buffer, segment)
	}
	return strings.TrimSpace(buffer)
}

// Clean normalizes segment whitespace.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(raw), " ")
}
