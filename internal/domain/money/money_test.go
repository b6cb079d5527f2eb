package money

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "Whole amount", input: "30.00", want: 3000},
		{name: "No decimals", input: "100", want: 10000},
		{name: "One decimal", input: "1250.5", want: 125050},
		{name: "Zero", input: "0", want: 0},
		{name: "Negative", input: "-12.34", want: -1234},
		{name: "Sub-cent precision", input: "0.005", wantErr: ErrTooPrecise},
		{name: "Garbage", input: "twelve", wantErr: ErrMalformedAmount},
		{name: "Empty", input: "", wantErr: ErrMalformedAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{3000, "30.00"},
		{0, "0.00"},
		{5, "0.05"},
		{100250, "1002.50"},
		{-1234, "-12.34"},
	}

	for _, tt := range tests {
		if got := Format(tt.minor); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.minor, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, 99, 100, 123456789} {
		parsed, err := Parse(Format(minor))
		if err != nil {
			t.Fatalf("round trip failed for %d: %v", minor, err)
		}
		if parsed != minor {
			t.Errorf("round trip for %d yielded %d", minor, parsed)
		}
	}
}
