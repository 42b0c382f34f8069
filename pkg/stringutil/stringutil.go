// Package stringutil holds small string helpers shared by the output formatters.
package stringutil

import "strings"

// Ellipsis collapses s onto one line and shortens it to at most maxLength runes,
// ending in "..." when something was cut. With maxLength <= 3 there is no room for the
// marker and s is cut hard.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")

	if maxLength < 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}

// Deref returns *p, or fallback when p is nil.
func Deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
