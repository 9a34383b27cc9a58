// Package normalize provides string normalization shared by the index
// encoders and the query predicates.
package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded NFC form of s. Two strings that compare equal
// ignoring case fold to the same value, which lets a single folded index
// serve equalsIgnoreCase and startsWithIgnoreCase lookups.
func Fold(s string) string {
	// cases.Caser is stateful; a fresh one per call keeps Fold safe for
	// concurrent readers.
	return cases.Fold().String(norm.NFC.String(ValidUTF8(s)))
}

// ValidUTF8 replaces every byte that is not part of a valid UTF-8 sequence
// with U+FFFD, the same coercion encoding/json applies when a record is
// stored. Values indexed from the struct then match the decoded record.
func ValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// HasPrefixFold reports whether s begins with prefix, ignoring case.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}

// IndexValue coerces s to valid UTF-8 and strips NUL bytes, which the key
// layout reserves as the separator between an index value and a record id.
func IndexValue(s string) string {
	s = ValidUTF8(s)
	if strings.IndexByte(s, 0) < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}
