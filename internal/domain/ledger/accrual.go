package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodOf returns the accrual period identifier for a point in time: the
// UTC calendar month, formatted YYYY-MM. Lexicographic order on these
// identifiers matches chronological order, which is what keeps an account's
// lastAccrualPeriod monotonically non-decreasing under a plain string
// comparison.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

var (
	bpDivisor    = decimal.NewFromInt(10_000)
	monthsInYear = decimal.NewFromInt(12)
)

// MonthlyInterest computes one month of interest on a balance, both in minor
// units, from an annual rate in basis points. Rounding is half-to-even at
// minor-unit precision so repeated accruals introduce no systematic drift.
//
//	MonthlyInterest(100_000, 240) == 200   // 1000.00 at 2.40 % p.a. -> 2.00
func MonthlyInterest(balance, rateBP int64) int64 {
	if balance <= 0 || rateBP <= 0 {
		return 0
	}
	return decimal.NewFromInt(balance).
		Mul(decimal.NewFromInt(rateBP)).
		Div(bpDivisor).
		Div(monthsInYear).
		RoundBank(0).
		IntPart()
}
