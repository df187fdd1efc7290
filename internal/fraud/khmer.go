package fraud

import "strings"

// khmerDigits maps Khmer numeral glyphs (U+17E0–U+17E9) to ASCII digits.
var khmerDigits = map[rune]rune{
	'០': '0',
	'១': '1',
	'២': '2',
	'៣': '3',
	'៤': '4',
	'៥': '5',
	'៦': '6',
	'៧': '7',
	'៨': '8',
	'៩': '9',
}

// khmerMonths maps Khmer month names, full and shortened renderings, to
// month numbers. Bank apps are not consistent about which form they print.
var khmerMonths = map[string]int{
	"មករា":     1,
	"កុម្ភៈ":   2,
	"កុម្ភ":    2,
	"មីនា":     3,
	"មេសា":     4,
	"ឧសភា":     5,
	"មិថុនា":   6,
	"កក្កដា":   7,
	"សីហា":     8,
	"កញ្ញា":    9,
	"តុលា":     10,
	"វិច្ឆិកា": 11,
	"វិច្ឆិក":  11,
	"ធ្នូ":     12,
}

// ConvertKhmerDigits replaces every Khmer numeral glyph in s with its ASCII
// equivalent, leaving all other runes untouched.
func ConvertKhmerDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := khmerDigits[r]; ok {
			return d
		}
		return r
	}, s)
}

// ContainsKhmerDigits reports whether s contains any Khmer numeral glyph.
func ContainsKhmerDigits(s string) bool {
	for _, r := range s {
		if _, ok := khmerDigits[r]; ok {
			return true
		}
	}
	return false
}

// findKhmerMonth scans s for a Khmer month name and returns its month number.
// Longer names are checked first so shortened forms cannot shadow them.
func findKhmerMonth(s string) (int, bool) {
	best := 0
	bestLen := 0
	for name, month := range khmerMonths {
		if strings.Contains(s, name) && len(name) > bestLen {
			best = month
			bestLen = len(name)
		}
	}
	return best, best != 0
}

// IsKhmerScript reports whether r falls in the Khmer Unicode block.
func IsKhmerScript(r rune) bool {
	return r >= 0x1780 && r <= 0x17FF
}
