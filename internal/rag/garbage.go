package rag

import (
	"strings"
	"unicode"
)

const (
	// Answers shorter than this are never flagged: a short legitimate
	// answer is more likely than short garbage, and the check must be
	// conservative.
	garbageMinLen = 50
	// Longest repeating unit the repetition check looks for.
	garbageMaxPeriod = 12
	// Fraction of the text a repeating unit must cover to count as
	// degenerate.
	garbageRepeatCover = 0.9
	// Minimum fraction of letters for text to count as linguistic.
	garbageMinLetterFrac = 0.3
)

// IsGarbage flags degenerate generated output: empty text, pathological
// repetition of a short substring, or text composed mostly of
// non-linguistic characters. It is a cheap heuristic with no model call,
// tuned to prefer false negatives.
func IsGarbage(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	runes := []rune(trimmed)
	if len(runes) < garbageMinLen {
		return false
	}

	if letterFraction(runes) < garbageMinLetterFrac {
		return true
	}

	return hasShortPeriod(runes)
}

func letterFraction(runes []rune) float64 {
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters++
		}
	}
	return float64(letters) / float64(len(runes))
}

// hasShortPeriod reports whether the text is (almost) entirely a short
// substring repeated over and over, e.g. "ababab..." or "no no no no".
func hasShortPeriod(runes []rune) bool {
	for period := 1; period <= garbageMaxPeriod; period++ {
		matches := 0
		for i := period; i < len(runes); i++ {
			if runes[i] == runes[i-period] {
				matches++
			}
		}
		if float64(matches) >= garbageRepeatCover*float64(len(runes)-period) {
			return true
		}
	}
	return false
}
