// Package reconcile maps OCR-shaped ledger rows onto canonical students, areas
// and notes. It performs no I/O of its own; student lookups go through the
// StudentLookup port.
package reconcile

import (
	"strings"
	"unicode"

	strs "sigcerh/pkg/platform/strings"
)

// minPluralFold is the shortest token whose trailing S is folded away.
const minPluralFold = 4

// FoldLabel produces the comparison key for a subject label or area name:
// diacritics stripped, upper-cased, punctuation treated as a separator, inner
// whitespace collapsed and a trailing plural S dropped from longer tokens.
func FoldLabel(s string) string {
	return strings.Join(foldTokens(s), " ")
}

func foldTokens(s string) []string {
	stripped := strings.ToUpper(strs.StripAccents(s))
	fields := strings.FieldsFunc(stripped, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		if len(f) >= minPluralFold && strings.HasSuffix(f, "S") {
			fields[i] = f[:len(f)-1]
		}
	}
	return fields
}

// cleanName is the form student names are stored and compared in.
func cleanName(s string) string {
	return strs.CollapseUpper(s)
}
