package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseDecimal Tests
// ----------------------------------------------------------------------------

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantValue string
	}{
		{name: "positive integer", input: "123", wantOK: true, wantValue: "123"},
		{name: "zero", input: "0", wantOK: true, wantValue: "0"},
		{name: "negative integer", input: "-456", wantOK: true, wantValue: "-456"},
		{name: "decimal number", input: "123.45", wantOK: true, wantValue: "123.45"},
		{name: "leading decimal point", input: ".99", wantOK: true, wantValue: "0.99"},
		{name: "trailing decimal point", input: "99.", wantOK: true, wantValue: "99"},
		{name: "forward rate precision", input: "83.214567", wantOK: true, wantValue: "83.214567"},
		{name: "scientific notation", input: "1.5e3", wantOK: true, wantValue: "1500"},
		{name: "surrounding whitespace", input: "  42.5 ", wantOK: true, wantValue: "42.5"},
		{name: "explicit plus sign", input: "+7", wantOK: true, wantValue: "7"},
		{name: "negative exponent", input: "1.5E-3", wantOK: true, wantValue: "0.0015"},
		{name: "beyond int64", input: "123456789012345678901234.5", wantOK: true, wantValue: "123456789012345678901234.5"},

		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "currency symbol", input: "$100", wantOK: false},
		{name: "thousands separator", input: "1,000", wantOK: false},
		{name: "percent", input: "12%", wantOK: false},
		{name: "two decimal points", input: "1.2.3", wantOK: false},
		{name: "NaN", input: "NaN", wantOK: false},
		{name: "infinity", input: "Inf", wantOK: false},
		{name: "bare sign", input: "-", wantOK: false},
		{name: "underscore grouping", input: "1_000", wantOK: false},
		{name: "space grouping", input: "1 000", wantOK: false},
		{name: "hex literal", input: "0x10", wantOK: false},
		{name: "missing exponent", input: "1e", wantOK: false},
		{name: "bare point", input: ".", wantOK: false},
		{name: "accounting negative", input: "(100)", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDecimal(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDecimal(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.String() != tt.wantValue {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
			if IsNumeric(tt.input) != tt.wantOK {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, !tt.wantOK, tt.wantOK)
			}
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000000", "1000000"},
		{"1.5E-3", "0.0015"},
		{"2.5E+6", "2500000"},
		{"83.50", "83.5"},
		{"4M", "4M"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeNumber(tt.input); got != tt.want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate_DDMMYYYY(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{name: "valid date", input: "15-03-2025", wantOK: true, want: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "first of january", input: "01-01-2024", wantOK: true, want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "leap day", input: "29-02-2024", wantOK: true, want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{name: "whitespace trimmed", input: " 31-12-2025 ", wantOK: true, want: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},

		{name: "non-leap february 29", input: "29-02-2025", wantOK: false},
		{name: "february 30", input: "30-02-2025", wantOK: false},
		{name: "april 31", input: "31-04-2025", wantOK: false},
		{name: "month 13", input: "01-13-2025", wantOK: false},
		{name: "day zero", input: "00-01-2025", wantOK: false},
		{name: "month zero", input: "01-00-2025", wantOK: false},
		{name: "ISO order", input: "2025-03-15", wantOK: false},
		{name: "slashes", input: "15/03/2025", wantOK: false},
		{name: "single digit day", input: "5-03-2025", wantOK: false},
		{name: "two digit year", input: "15-03-25", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, DateDDMMYYYY)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_ISO(t *testing.T) {
	tests := []struct {
		input  string
		wantOK bool
	}{
		{"2025-03-15", true},
		{"2025-03-15T10:30:00", true},
		{"2025-03-15T10:30:00Z", true},
		{"2025-03-15 10:30:00", true},
		{"2025-02-30", false},
		{"15-03-2025", false},
		{"2025/03/15", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := ParseDate(tt.input, DateISO)
			if ok != tt.wantOK {
				t.Errorf("ParseDate(%q, ISO) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
		})
	}
}

func TestFormatDate_RoundTrip(t *testing.T) {
	d := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	for _, layout := range []DateLayout{DateISO, DateDDMMYYYY} {
		s := FormatDate(d, layout)
		got, ok := ParseDate(s, layout)
		if !ok {
			t.Errorf("ParseDate(FormatDate(%v, %s)) failed for %q", d, layout, s)
			continue
		}
		if !got.Equal(d) {
			t.Errorf("round trip %s = %v, want %v", layout, got, d)
		}
	}

	if got := FormatDate(d, DateDDMMYYYY); got != "04-07-2025" {
		t.Errorf("FormatDate DD-MM-YYYY = %q, want %q", got, "04-07-2025")
	}
}

// ----------------------------------------------------------------------------
// ParseDateText Tests
// ----------------------------------------------------------------------------

func TestParseDateText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{name: "ISO", input: "2025-01-15", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "ISO with slashes", input: "2025/01/15", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "day first dashes", input: "15-01-2025", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "named month", input: "15 Jan 2025", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "named month dashes", input: "15-Jan-2025", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "US long form", input: "January 15, 2025", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year", input: "15-Jan-25", wantOK: true, want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "two digit year previous century", input: "15-Jan-99", wantOK: true, want: time.Date(1999, 1, 15, 0, 0, 0, 0, time.UTC)},

		{name: "ambiguous slash date", input: "01/02/2025", wantOK: false},
		{name: "plain number", input: "45000", wantOK: false},
		{name: "thousands", input: "1,000,000", wantOK: false},
		{name: "text", input: "Forward contract", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateText(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDateText(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDateText(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},

		{name: "leading whitespace", input: "  hello", want: "hello"},
		{name: "trailing whitespace", input: "hello  ", want: "hello"},
		{name: "surrounded by whitespace", input: "  hello  ", want: "hello"},

		{name: "Excel formula with quotes", input: `="hello"`, want: "hello"},
		{name: "Excel formula number as text", input: `="12345"`, want: "12345"},
		{name: "equals at start only", input: "=USD", want: "USD"},
		{name: "real formula kept", input: "=SUM(A1:A3)", want: "=SUM(A1:A3)"},

		{name: "double quotes removed", input: `"hello"`, want: "hello"},
		{name: "single quotes kept", input: "'hello'", want: "'hello'"},

		{name: "whitespace and quotes", input: `  "hello"  `, want: "hello"},
		{name: "excel formula with whitespace", input: `  ="test"  `, want: "test"},

		{name: "only quotes", input: `""`, want: ""},
		{name: "equals with quoted number", input: `="0"`, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanCell(tt.input)
			if got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int // key -> expected index
	}{
		{
			name:   "simple headers",
			header: []string{"currency_pair", "amount", "tenor"},
			checks: map[string]int{"currency_pair": 0, "amount": 1, "tenor": 2},
		},
		{
			name:   "case insensitive lookup",
			header: []string{"CURRENCY_PAIR", "Amount", "tEnOr"},
			checks: map[string]int{"currency_pair": 0, "amount": 1, "tenor": 2},
		},
		{
			name:   "headers with quotes cleaned",
			header: []string{`"Amount"`, `"Tenor"`},
			checks: map[string]int{"amount": 0, "tenor": 1},
		},
		{
			name:   "headers with whitespace",
			header: []string{"  Amount  ", " Tenor "},
			checks: map[string]int{"amount": 0, "tenor": 1},
		},
		{
			name:   "headers with Excel formula",
			header: []string{`="Amount"`, `="Tenor"`},
			checks: map[string]int{"amount": 0, "tenor": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)

			for key, wantPos := range tt.checks {
				gotPos, ok := idx[key]
				if !ok {
					t.Errorf("MakeHeaderIndex(%v)[%q] not found, want index %d",
						tt.header, key, wantPos)
					continue
				}
				if gotPos != wantPos {
					t.Errorf("MakeHeaderIndex(%v)[%q] = %d, want %d",
						tt.header, key, gotPos, wantPos)
				}
			}
		})
	}
}

// TestMakeHeaderIndex_DuplicateHeaders checks that the first occurrence of a
// repeated column is the one the validator reads.
func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	header := []string{"amount", "tenor", "Amount"}
	idx := MakeHeaderIndex(header)

	if gotPos, ok := idx["amount"]; !ok || gotPos != 0 {
		t.Errorf("MakeHeaderIndex with duplicates: amount index = %d, want 0", gotPos)
	}
}
