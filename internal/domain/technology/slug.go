package technology

import (
	"strings"
	"unicode"
)

// Slugify lowercases name, turns whitespace and underscores into dashes, spells out
// '+' and '#', drops everything outside [a-z0-9-] and collapses dash runs.
// Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '+':
			b.WriteString("plus")
			lastDash = false
		case r == '#':
			b.WriteString("sharp")
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// NameKey is the case-insensitive identity of a technology name.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
