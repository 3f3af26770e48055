// Package textnorm folds free text so spreadsheet headers and French labels
// compare equal regardless of case, accents and spacing.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses runs of whitespace,
// underscores and dashes into a single space. "Date d'opération" and
// "DATE D'OPERATION" fold to the same key.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	fields := strings.FieldsFunc(out, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-'
	})
	return strings.Join(fields, " ")
}

// Equal reports whether a and b fold to the same key.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
