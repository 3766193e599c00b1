package util

import "strings"

func CountWords(s string) int {
	return len(strings.Fields(s))
}

// FirstWords returns up to n leading words of s joined by single spaces.
func FirstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// TruncateRunes caps s at maxRunes, never splitting a rune.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
