// Package strings provides text normalization helpers for free text coming
// out of optical extraction.
package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// CollapseUpper uppercases s, trims it and collapses inner whitespace runs to
// a single space. Accents are kept.
//
//	CollapseUpper("  pérez   de la cruz ") // "PÉREZ DE LA CRUZ"
func CollapseUpper(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// StripAccents removes combining marks after canonical decomposition, so "Á"
// becomes "A" and "Ñ" becomes "N".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
