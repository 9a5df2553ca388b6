// Package answer canonicalizes free-text answers and decides whether two answers match.
//
// Two matching rules exist and are deliberately kept apart:
//   - MatchStrict is used by the interactive practice flows.
//   - MatchLenient is used only when comparing a vision model's answer against the answer key.
package answer

import "strings"

// unitSuffixes are removed, in order, by NormalizeUnits.
var unitSuffixes = []string{" units", " sq m", " cm", "m2"}

// Normalize lowercases s and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// NormalizeUnits is Normalize followed by removal of common unit suffixes.
// Every occurrence is removed, so "24 cm" and "24" normalize to the same form.
func NormalizeUnits(s string) string {
	clean := Normalize(s)
	for _, unit := range unitSuffixes {
		clean = strings.ReplaceAll(clean, unit, "")
	}
	return strings.TrimSpace(clean)
}

// MatchStrict reports whether two answers are equal after Normalize.
func MatchStrict(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// MatchLenient reports whether two answers are equal after NormalizeUnits, or whether one
// non-empty form is contained in the other ("the answer is 24" matches "24").
//
// This is permissive on purpose and produces false positives for numbers that share digits
// ("120" matches "12000"); callers that need certainty should use MatchStrict.
func MatchLenient(a, b string) bool {
	na, nb := NormalizeUnits(a), NormalizeUnits(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
