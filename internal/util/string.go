package util

import (
	"strings"
	"unicode"
)

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CollapseSpaces trims s and folds every whitespace run into one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slugify converts a title to a filename-safe slug of at most maxRunes runes.
// Word characters are kept, whitespace and hyphen runs become a single '-'.
func Slugify(name string, maxRunes int) string {
	var builder strings.Builder
	pendingDash := false
	for _, r := range Normalize(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && builder.Len() > 0 {
				builder.WriteRune('-')
			}
			pendingDash = false
			builder.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}

	slug := []rune(builder.String())
	if maxRunes > 0 && len(slug) > maxRunes {
		slug = slug[:maxRunes]
	}
	return strings.Trim(string(slug), "-")
}

// TitleCase upper-cases the first letter of every space separated word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
