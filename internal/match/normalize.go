// Package match implements the deterministic, rule-based recipient name
// matching cascade and the account number check used by the verification
// pipeline. Every rule is a fixed transformation; there is no statistical
// guessing, and every strategy attempted is recorded for audit.
package match

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize uppercases a name, strips punctuation, and collapses whitespace
// runs into single spaces.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := true
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Punctuation carries no identity signal and is a frequent
			// OCR artifact.
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// Tokenize splits a normalized name into its space-separated tokens.
func Tokenize(name string) []string {
	return strings.Fields(Normalize(name))
}

// Similarity returns a 0–1 string similarity derived from edit distance:
// 1 − distance/maxLen. Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// NormalizeAccount strips whitespace and dashes from an account number so
// formatted and unformatted renderings compare equal.
func NormalizeAccount(account string) string {
	var b strings.Builder
	b.Grow(len(account))
	for _, r := range account {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AccountsMatch reports whether two account numbers refer to the same
// account: exact equality after normalization, or substring containment in
// either direction (statements often truncate or mask account numbers).
func AccountsMatch(extracted, expected string) bool {
	a := NormalizeAccount(extracted)
	b := NormalizeAccount(expected)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
