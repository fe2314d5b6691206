package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate cuts content to at most maxLen bytes without splitting a rune and
// appends "..." when anything was dropped.
func Truncate(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

func Truncate80(content string) string {
	return Truncate(content, 80)
}

// OneLine folds newlines into spaces and trims the result.
func OneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
