package core

// convert.go turns the loosely formatted cells of marketplace exports into
// typed values:
//   - Amounts with currency symbols, thousands separators or accounting
//     parentheses
//   - Timestamps in ISO, US, EU and "Jan 2, 2006 3:04:05 PM PST" styles,
//     with or without a zone abbreviation
//   - Excel formula wrappers (="value") around identifiers

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var (
	errEmptyAmount      = errors.New("empty amount")
	errInvalidAmount    = errors.New("not a number")
	errAmountOutOfRange = errors.New("amount out of range")
)

// PostgreSQL NUMERIC limits: digits before and after the decimal point.
const (
	maxAmountIntegerDigits = 131072
	maxAmountScale         = 16383
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Layouts carrying their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
}

// Layouts interpreted in UTC, or in the zone named by a trailing abbreviation.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// Fixed offsets for the abbreviations marketplace reports append to timestamps.
var zoneOffsets = map[string]int{
	"UTC": 0, "GMT": 0, "Z": 0,
	"PST": -8 * 3600, "PDT": -7 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"BST": 1 * 3600, "CET": 1 * 3600, "CEST": 2 * 3600,
	"JST": 9 * 3600, "AEST": 10 * 3600, "AEDT": 11 * 3600,
}

// ParseAmount converts a cell to a decimal.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
			return decimal.Zero, errInvalidAmount
		}
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Zero, errInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}
	// "0e999999999" is still zero; don't carry its exponent forward
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if !amountInRange(d) {
		return decimal.Zero, errAmountOutOfRange
	}
	return d, nil
}

// amountInRange reports whether d fits a NUMERIC column. It looks only at the
// coefficient and exponent, so an absurd exponent is rejected without ever
// expanding the value.
func amountInRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < 0 && -exp > maxAmountScale {
		return false
	}
	return int64(d.NumDigits())+exp <= maxAmountIntegerDigits
}

// ParseTimestamp converts a cell to a UTC instant. The second result is false
// when the value is empty or matches no known layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	loc := time.UTC
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		abbr := strings.ToUpper(s[i+1:])
		if off, ok := zoneOffsets[abbr]; ok {
			loc = time.FixedZone(abbr, off)
			s = strings.TrimSpace(s[:i])
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), true
		}
	}

	if t, ok := parseDate(s, loc); ok {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// parseDate tries date-only layouts, applying the two-digit year pivot.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// CleanCell removes common spreadsheet artifacts from an identifier:
// surrounding whitespace, an Excel formula wrapper (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
