// Package textutil holds the small string transforms shared by the trigger
// handlers.
package textutil

import "strings"

// SafeUID strips every "." from uid so it can be used as a nested field-path
// segment. OAuth-issued ids (notably Apple) can contain literal dots.
func SafeUID(uid string) string {
	return strings.ReplaceAll(uid, ".", "")
}

// Truncate returns text unchanged when it has at most maxLength characters,
// otherwise its first maxLength characters followed by "...".
// Length is counted in runes so multi-byte text is never cut mid-character.
func Truncate(text string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}
