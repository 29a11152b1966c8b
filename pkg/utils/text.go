// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// SplitLines splits s on "\n", trimming a trailing "\r" from each line so
// CRLF content indexes the same as LF content. Line text is otherwise
// preserved verbatim.
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// CountLines returns the number of lines SplitLines would produce.
func CountLines(s string) int {
	return strings.Count(s, "\n") + 1
}
