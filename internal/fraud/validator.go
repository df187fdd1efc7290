// Package fraud implements the screenshot date validity checks and the fraud
// alert records produced when a verification attempt fails for a
// fraud-relevant reason.
package fraud

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chamnan-dev/slipguard/internal/model"
)

// DefaultMaxAgeDays is the staleness cutoff used when the caller does not
// configure one.
const DefaultMaxAgeDays = 7

// Sentinel strings some upstream extractors emit instead of an empty field.
var missingSentinels = map[string]bool{
	"":          true,
	"null":      true,
	"undefined": true,
	"n/a":       true,
	"none":      true,
}

// nativeLayouts are tried in order before any locale-specific recovery.
var nativeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"January 2, 2006",
}

var (
	// dayMonthYear matches DD/MM/YYYY and DD-MM-YYYY with an optional time.
	dayMonthYear = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})(?:\D+(\d{1,2}):(\d{2}))?`)
	clockTime    = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	numberToken  = regexp.MustCompile(`\d+`)
)

// Validate parses a free-text transaction timestamp and classifies the
// screenshot's age relative to the upload time. It is a pure function over
// its three inputs; first failing check wins.
func Validate(rawDateText string, uploadedAt time.Time, maxAgeDays int) model.DateValidation {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	trimmed := strings.TrimSpace(rawDateText)
	if missingSentinels[strings.ToLower(trimmed)] {
		return model.DateValidation{
			FraudType: model.FraudMissingDate,
			Reason:    "no transaction date extracted from screenshot",
		}
	}

	parsed, err := ParseTransactionDate(trimmed, uploadedAt.Location())
	if err != nil {
		return model.DateValidation{
			FraudType: model.FraudInvalidDate,
			Reason:    fmt.Sprintf("unparseable transaction date %q", trimmed),
		}
	}

	if parsed.After(uploadedAt) {
		days := int(parsed.Sub(uploadedAt).Hours() / 24)
		return model.DateValidation{
			ParsedDate: &parsed,
			FraudType:  model.FraudFutureDate,
			AgeDays:    -days,
			Reason:     fmt.Sprintf("transaction dated %d day(s) after upload", days),
		}
	}

	ageDays := int(uploadedAt.Sub(parsed).Hours() / 24)
	if ageDays > maxAgeDays {
		return model.DateValidation{
			ParsedDate: &parsed,
			FraudType:  model.FraudOldScreenshot,
			AgeDays:    ageDays,
			Reason:     fmt.Sprintf("screenshot is %d day(s) old, max allowed is %d", ageDays, maxAgeDays),
		}
	}

	return model.DateValidation{
		ParsedDate: &parsed,
		AgeDays:    ageDays,
		IsValid:    true,
	}
}

// ParseTransactionDate attempts to parse a free-text timestamp, recovering
// from Khmer numerals, Khmer month names, and ambiguous day/month ordering.
func ParseTransactionDate(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	if t, ok := parseNative(text, loc); ok {
		return t, nil
	}

	// Khmer numeral glyphs defeat every native layout; convert and retry.
	if ContainsKhmerDigits(text) {
		converted := ConvertKhmerDigits(text)
		if t, ok := parseNative(converted, loc); ok {
			return t, nil
		}
		text = converted
	}

	if t, ok := parseKhmerMonth(text, loc); ok {
		return t, nil
	}

	if t, ok := parseDayMonthYear(text, loc); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("no known date format matches %q", text)
}

func parseNative(text string, loc *time.Location) (time.Time, bool) {
	for _, layout := range nativeLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseKhmerMonth reconstructs a date from a Khmer month name and the
// surrounding numeric tokens. The token greater than 31 is taken as the
// year; an HH:MM pair, if present, supplies the time of day.
func parseKhmerMonth(text string, loc *time.Location) (time.Time, bool) {
	month, ok := findKhmerMonth(text)
	if !ok {
		return time.Time{}, false
	}

	hour, minute := 0, 0
	remainder := text
	if m := clockTime.FindStringSubmatchIndex(remainder); m != nil {
		hour, _ = strconv.Atoi(remainder[m[2]:m[3]])
		minute, _ = strconv.Atoi(remainder[m[4]:m[5]])
		remainder = remainder[:m[0]] + remainder[m[1]:]
	}

	day, year := 0, 0
	for _, tok := range numberToken.FindAllString(remainder, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		switch {
		case n > 31 && year == 0:
			year = n
		case n >= 1 && n <= 31 && day == 0:
			day = n
		}
	}

	if day == 0 || year == 0 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
}

// parseDayMonthYear handles generic DD/MM/YYYY and DD-MM-YYYY strings,
// swapping day and month when the apparent month exceeds 12 and the apparent
// day does not.
func parseDayMonthYear(text string, loc *time.Location) (time.Time, bool) {
	m := dayMonthYear.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	if month > 12 && day <= 12 {
		day, month = month, day
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if hour > 23 || minute > 59 {
			hour, minute = 0, 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
}
