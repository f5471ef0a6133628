package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Username returns a normalized username: trimmed and lower-cased, so the
// unique index and substring search are both case-insensitive in effect.
func Username(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
