package game

import (
	"strings"

	"guessart/internal/types"
)

// Candidates returns the two accepted spellings of a title: the tokens joined
// as-is, and the tokens joined after stripping edge punctuation.
func Candidates(tokens []string) (literal, stripped string) {
	return strings.Join(tokens, " "), strings.Join(StripAll(tokens), " ")
}

// CheckAnswer compares input against the session's current title. Matching is
// exact and case-sensitive. A session without a loaded artwork never matches.
func CheckAnswer(s *Session, input string) types.Verdict {
	tokens := s.Title()
	if len(tokens) == 0 {
		return types.Incorrect
	}
	literal, stripped := Candidates(tokens)
	if input == literal || input == stripped {
		return types.Correct
	}
	return types.Incorrect
}
