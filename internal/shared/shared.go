package shared

import "strings"

// Truncate cuts s down to at most limit runes. Clipboard text may contain
// multi-byte characters, so the cut must not split a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}

// NormalizeAddress converts an address to the canonical whitelist form
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
