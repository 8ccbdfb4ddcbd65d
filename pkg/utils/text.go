// Package utils provides shared utilities for text and logging.
package utils

// Truncate returns s cut to maxLen runes with "..." appended when it was longer.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
