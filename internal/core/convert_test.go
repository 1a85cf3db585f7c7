package core

import (
	"strings"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseAmount Tests
// ----------------------------------------------------------------------------

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		// Valid: plain numbers
		{name: "positive integer", input: "123", wantValid: true, wantValue: "123"},
		{name: "zero", input: "0", wantValid: true, wantValue: "0"},
		{name: "negative decimal", input: "-3.10", wantValid: true, wantValue: "-3.1"},
		{name: "explicit plus", input: "+7.25", wantValid: true, wantValue: "7.25"},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: "0.99"},
		{name: "trailing decimal point", input: "99.", wantValid: true, wantValue: "99"},
		{name: "surrounding whitespace", input: "  42.5 ", wantValid: true, wantValue: "42.5"},
		{name: "scientific notation", input: "1.5e3", wantValid: true, wantValue: "1500"},
		{name: "many decimals kept exact", input: "0.1000000000000000055", wantValid: true, wantValue: "0.1000000000000000055"},

		// Valid: cleanup
		{name: "dollar sign", input: "$1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "euro sign", input: "€99.00", wantValid: true, wantValue: "99"},
		{name: "pound sign", input: "£5", wantValid: true, wantValue: "5"},
		{name: "accounting negative", input: "(12.50)", wantValid: true, wantValue: "-12.5"},
		{name: "accounting negative with currency", input: "($1,000.00)", wantValid: true, wantValue: "-1000"},

		// Invalid
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "NaN", input: "NaN", wantValid: false},
		{name: "infinity", input: "Inf", wantValid: false},
		{name: "two points", input: "1.2.3", wantValid: false},
		{name: "double negative accounting", input: "(-5)", wantValid: false},
		{name: "trailing text", input: "12 USD", wantValid: false},
		{name: "sign only", input: "-", wantValid: false},

		// Out of NUMERIC range
		{name: "huge exponent", input: "1e200000", wantValid: false},
		{name: "exponent near int32 max", input: "5e999999999", wantValid: false},
		{name: "tiny exponent", input: "1e-20000", wantValid: false},
		{name: "too many integer digits", input: "1" + strings.Repeat("0", 131072), wantValid: false},
		{name: "largest exponent that fits", input: "9e131071", wantValid: true, wantValue: "9" + strings.Repeat("0", 131071)},
		{name: "zero with huge exponent", input: "0e999999999", wantValid: true, wantValue: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err == nil) != tt.wantValid {
				t.Fatalf("ParseAmount(%q) err = %v, wantValid %v", tt.input, err, tt.wantValid)
			}
			if tt.wantValid && got.String() != tt.wantValue {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseTimestamp Tests
// ----------------------------------------------------------------------------

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      time.Time
	}{
		{
			name:      "RFC3339 UTC",
			input:     "2024-01-02T03:04:05Z",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:      "RFC3339 with offset",
			input:     "2024-01-02T03:04:05+02:00",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 1, 4, 5, 0, time.UTC),
		},
		{
			name:      "RFC3339 fractional",
			input:     "2024-01-02T03:04:05.250Z",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 3, 4, 5, 250_000_000, time.UTC),
		},
		{
			name:      "ISO without zone is UTC",
			input:     "2024-01-02T03:04:05",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:      "space separated with UTC",
			input:     "2024-01-02 03:04:05 UTC",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:      "space separated numeric offset",
			input:     "2024-01-02 03:04:05 -0500",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 8, 4, 5, 0, time.UTC),
		},
		{
			name:      "payments report PST",
			input:     "Jan 1, 2024 10:00:00 PM PST",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:      "payments report PDT",
			input:     "Jul 4, 2024 9:15:00 AM PDT",
			wantValid: true,
			want:      time.Date(2024, 7, 4, 16, 15, 0, 0, time.UTC),
		},
		{
			name:      "lowercase zone",
			input:     "2024-01-02 03:04:05 cet",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC),
		},
		{
			name:      "european dotted",
			input:     "02.01.2024 03:04:05 UTC",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			name:      "date only",
			input:     "2024-01-02",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "US date only",
			input:     "1/2/2024",
			wantValid: true,
			want:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "", wantValid: false},
		{name: "garbage", input: "not a date", wantValid: false},
		{name: "unknown zone", input: "2024-01-02 03:04:05 XYZ", wantValid: false},
		{name: "impossible date", input: "2024-02-30", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseTimestamp_TwoDigitYear(t *testing.T) {
	originalPivot := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = originalPivot }()

	TwoDigitYearPivot = 20

	tests := []struct {
		name     string
		input    string
		wantYear int
	}{
		{"2-digit year 25 as 2025", "01/15/25", 2025},
		{"2-digit year 99 as 1999", "01/15/99", 1999},
		{"2-digit year 85 as 1985", "01/15/85", 1985},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if !ok {
				t.Fatalf("ParseTimestamp(%q) failed", tt.input)
			}
			if got.Year() != tt.wantYear {
				t.Errorf("ParseTimestamp(%q) year = %d, want %d", tt.input, got.Year(), tt.wantYear)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  111-2223334-5556667 ", "111-2223334-5556667"},
		{`="111-2223334"`, "111-2223334"},
		{"=12345", "12345"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
