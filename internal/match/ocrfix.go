package match

import "strings"

// ocrCharFixes maps characters commonly confused by OCR engines onto a
// canonical letter. Punctuation confusions (period vs comma) need no entry
// because normalization strips punctuation entirely. Kept as data so the
// table is testable in isolation from the cascade.
var ocrCharFixes = map[rune]rune{
	'0': 'O',
	'1': 'I',
	'|': 'I',
	'L': 'I',
	'5': 'S',
	'8': 'B',
	'6': 'G',
	'2': 'Z',
}

// ocrBigramFixes lists character pairs that OCR engines read as a single
// glyph. Ordered so the rewrite is deterministic.
var ocrBigramFixes = []struct {
	bigram string
	single string
}{
	{"RN", "M"},
	{"CL", "D"},
}

// CanonicalizeOCR rewrites a normalized name into its OCR-canonical form:
// every confusable character or bigram is replaced with its canonical
// counterpart. Applying the same rewrite to both sides of a comparison makes
// digit-for-letter misreads compare equal without corrupting names that
// legitimately contain the canonical sequences.
func CanonicalizeOCR(normalized string) string {
	// Bigram rewrites run first: the character table folds L into I, which
	// would otherwise destroy the CL pair before it can be recognized.
	for _, fix := range ocrBigramFixes {
		normalized = strings.ReplaceAll(normalized, fix.bigram, fix.single)
	}

	return strings.Map(func(r rune) rune {
		if fixed, ok := ocrCharFixes[r]; ok {
			return fixed
		}
		return r
	}, normalized)
}
