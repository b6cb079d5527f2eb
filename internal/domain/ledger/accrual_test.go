package ledger

import (
	"testing"
	"time"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC), "2026-08"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-01"},
		// Local time just before a month boundary lands in the UTC month.
		{time.Date(2026, 9, 1, 1, 30, 0, 0, time.FixedZone("CEST", 2*3600)), "2026-08"},
	}

	for _, tt := range tests {
		if got := PeriodOf(tt.at); got != tt.want {
			t.Errorf("PeriodOf(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestPeriodOrderingMatchesTime(t *testing.T) {
	earlier := PeriodOf(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	later := PeriodOf(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	yearRoll := PeriodOf(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))

	if !(earlier < later && later < yearRoll) {
		t.Errorf("period identifiers not chronologically ordered: %q %q %q", earlier, later, yearRoll)
	}
}

func TestMonthlyInterest(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		rateBP  int64
		want    int64
	}{
		{"Savings 1000.00 at 2.40%", 100_000, 240, 200},
		{"Zero balance", 0, 240, 0},
		{"Zero rate", 100_000, 0, 0},
		{"Rounds half to even down", 1_250, 240, 2},   // 2.5 cents -> 2
		{"Rounds half to even up", 3_750, 240, 8},     // 7.5 cents -> 8
		{"Tiny balance rounds to nothing", 100, 1, 0}, // 0.0000083 cents
		{"Large balance exact", 1_000_000_000, 600, 5_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthlyInterest(tt.balance, tt.rateBP); got != tt.want {
				t.Errorf("MonthlyInterest(%d, %d) = %d, want %d", tt.balance, tt.rateBP, got, tt.want)
			}
		})
	}
}
