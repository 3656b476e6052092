package helpers

import (
	"strings"
	"unicode"
)

// SplitAndTrim splits s by sep and trims empty parts.
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Humanize turns a filename stem into display text: separators become
// spaces and each word is title-cased ("sunset_over-bay" -> "Sunset Over Bay").
func Humanize(stem string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Stem returns the filename without its extension.
func Stem(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		return filename[:i]
	}
	return filename
}
