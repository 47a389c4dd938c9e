// Package cachekey derives stable identifiers for cached chord sheets and
// search results. Keys are pure functions of their inputs so the same song
// maps to the same record across sessions.
package cachekey

import (
	"strings"
	"unicode"
)

// FieldSeparator joins the artist and title fields in a sheet key. Field
// normalization maps every underscore and whitespace run to a hyphen, so
// this character can only appear at the field boundary.
const FieldSeparator = "_"

// Generate derives the record ID for an (artist, title) pair.
// "Guns N Roses" / "Sweet Child O Mine" becomes
// "guns-n-roses_sweet-child-o-mine". Empty fields are allowed and produce
// a degenerate but valid key.
func Generate(artist, title string) string {
	return normalizeField(artist) + FieldSeparator + normalizeField(title)
}

// Parse splits a key produced by Generate back into its normalized artist
// and title. The split is on the last separator occurrence; normalized
// fields cannot contain the separator, so the last occurrence is the field
// boundary even for degenerate keys.
func Parse(key string) (artist, title string) {
	i := strings.LastIndex(key, FieldSeparator)
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+len(FieldSeparator):]
}

// normalizeField lowercases a field and collapses whitespace runs to a
// single hyphen. Underscores are folded into hyphens so the field can
// never contain the key separator.
func normalizeField(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '_' {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeQuery canonicalizes free-text search input so equivalent queries
// share one cache row: trim, lowercase, strip punctuation, collapse
// whitespace to single spaces.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(strings.ToLower(q))
	var b strings.Builder
	b.Grow(len(q))
	pendingSpace := false
	for _, r := range q {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			// Punctuation is dropped entirely
		}
	}
	return b.String()
}
