package utils

import "strings"

// Ellipsis is appended to any text shortened by this package.
const Ellipsis = "..."

// ShortenAtWord returns text unchanged when it has at most maxLen characters.
// Otherwise it cuts at the last space inside the first maxLen-3 characters and
// appends an ellipsis, so the result never exceeds maxLen characters. A window
// without any space is cut mid-word.
func ShortenAtWord(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= len(Ellipsis) {
		return string(runes[:maxLen])
	}

	window := string(runes[:maxLen-len(Ellipsis)])
	if idx := strings.LastIndex(window, " "); idx >= 0 {
		window = window[:idx]
	}
	return window + Ellipsis
}

// TruncateWithEllipsis hard-cuts text to maxLen characters, ellipsis included.
func TruncateWithEllipsis(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= len(Ellipsis) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(Ellipsis)]) + Ellipsis
}
