package core

// convert.go provides the cell-level coercions shared by the tokenizers and the
// validator.
//
// Uploaded cells are checked strictly: numeric means a finite decimal with no
// currency symbols or thousands separators, and DD-MM-YYYY dates must survive a
// calendar round trip. Spreadsheet cells are looser on the way in because
// Excel renders dates in whatever format the author picked, so date-like
// values are recognised and re-rendered in the schema's layout before they
// reach the validator.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ddmmyyyyRegex matches the shape of a strict DD-MM-YYYY date.
var ddmmyyyyRegex = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

var (
	numericDateShape = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{2,4}([ T]|$)`)
	namedMonthShape  = regexp.MustCompile(`(?i)^\d{0,2}[- ]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[- ,]+\d{1,4}`)
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Layouts tried when a spreadsheet cell holds a date as text. Only layouts
// that cannot be confused between day-first and month-first are listed.
var (
	isoDateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	textDateLayouts = []string{
		"2006/01/02", "2006.01.02",
		"02-01-2006",
		"2 Jan 2006", "02 Jan 2006", "2-Jan-2006", "02-Jan-2006",
		"Jan 2, 2006", "January 2, 2006", "2 January 2006",
	}
	twoDigitYearLayouts = []string{
		"2-Jan-06", "02-Jan-06",
	}
)

// HeaderIndex maps lowercase header names to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. When a header repeats,
// the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := normalizeHeader(CleanCell(h))
		if _, seen := idx[key]; seen {
			continue
		}
		idx[key] = i
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") && !strings.ContainsAny(s[1:], "()+*/") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"`))
}

// ParseDecimal parses a trimmed numeric literal: integers, decimals and
// scientific notation. Currency symbols, thousands separators and non-finite
// values are rejected.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, ",_ ") {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IsNumeric reports whether s parses as a finite decimal number.
func IsNumeric(s string) bool {
	_, ok := ParseDecimal(s)
	return ok
}

// NormalizeNumber renders a stored numeric value in plain decimal notation,
// so "1.5E-3" becomes "0.0015". Values that do not parse come back unchanged.
func NormalizeNumber(s string) string {
	d, ok := ParseDecimal(s)
	if !ok {
		return s
	}
	return d.String()
}

// ParseDate parses s according to layout. DD-MM-YYYY values are range
// checked and must round-trip to the same calendar day, so 30-02-2025 and
// 01-13-2025 are rejected instead of rolling over.
func ParseDate(s string, layout DateLayout) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if layout == DateISO {
		for _, l := range isoDateLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	m := ddmmyyyyRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t in the given layout.
func FormatDate(t time.Time, layout DateLayout) string {
	return t.Format(layout.goLayout())
}

// ParseDateText recognises a date written as text in any of the unambiguous
// layouts spreadsheets commonly produce.
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !looksLikeDate(s) {
		return time.Time{}, false
	}

	for _, l := range isoDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	for _, l := range textDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, l := range twoDigitYearLayouts {
		if t, err := time.Parse(l, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// looksLikeDate is a cheap pre-filter so ordinary text and numbers skip the
// layout loop.
func looksLikeDate(s string) bool {
	if len(s) < 6 || len(s) > 32 {
		return false
	}
	return numericDateShape.MatchString(s) || namedMonthShape.MatchString(s)
}
