// Package evaluator scores a guess against a secret word.
package evaluator

import (
	"strings"

	"github.com/mcoot/worduel/internal/model"
)

// Evaluate returns one verdict per letter of guess.
//
// Exact positional matches are marked correct first and consume their
// secret letter. Remaining guess letters are then scanned left to right, each
// consuming the first unconsumed occurrence of that letter in the secret
// (present) or, if none remains, marked absent. A letter repeated in the guess
// is therefore marked present no more times than it is left unmatched in the
// secret.
//
// Both words must already be normalized to the same case and length.
func Evaluate(guess, secret string) []model.Verdict {
	g := []byte(guess)
	remaining := []byte(secret)
	verdicts := make([]model.Verdict, len(g))

	for i := range g {
		if i < len(remaining) && g[i] == remaining[i] {
			verdicts[i] = model.VerdictCorrect
			remaining[i] = 0
		}
	}

	for i := range g {
		if verdicts[i] == model.VerdictCorrect {
			continue
		}
		verdicts[i] = model.VerdictAbsent
		for j := range remaining {
			if remaining[j] == g[i] {
				verdicts[i] = model.VerdictPresent
				remaining[j] = 0
				break
			}
		}
	}

	return verdicts
}

// Solved reports whether every verdict is correct
func Solved(verdicts []model.Verdict) bool {
	if len(verdicts) == 0 {
		return false
	}
	for _, v := range verdicts {
		if v != model.VerdictCorrect {
			return false
		}
	}
	return true
}

// Normalize trims and uppercases a raw guess
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// WellFormed reports whether word is exactly five ASCII letters
func WellFormed(word string) bool {
	if len(word) != model.WordLength {
		return false
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
