package game

import (
	"strings"

	"github.com/samber/lo"
)

// StripPunctuation trims characters outside [A-Za-z0-9_] from both ends of
// token. Interior punctuation such as the apostrophe in "Artist's" is kept.
func StripPunctuation(token string) string {
	return strings.TrimFunc(token, func(r rune) bool { return !isWordChar(r) })
}

// StripAll applies StripPunctuation to every token.
func StripAll(tokens []string) []string {
	return lo.Map(tokens, func(t string, _ int) string {
		return StripPunctuation(t)
	})
}

// Tokenize splits a title on runs of whitespace.
func Tokenize(title string) []string {
	return strings.Fields(title)
}

func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
