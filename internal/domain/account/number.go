package account

import (
	"fmt"
	"math/rand/v2"
)

// Type-specific account number prefixes. The full number is the prefix plus
// an eight-digit random suffix, e.g. "CHK04512963".
var numberPrefixes = map[Type]string{
	TypeChecking:   "CHK",
	TypeSavings:    "SAV",
	TypeBusiness:   "BUS",
	TypeInvestment: "INV",
}

const numberSuffixMax = 100_000_000 // 8 digits

// NumberGenerator produces candidate account numbers. Candidates are random,
// not unique: the caller must retry against the store's uniqueness constraint
// (see Service.Open).
type NumberGenerator struct {
	// intN is swappable for deterministic tests; defaults to rand.IntN,
	// which is safe for concurrent use.
	intN func(n int) int
}

// NewNumberGenerator creates a generator backed by the shared PRNG.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{intN: rand.IntN}
}

// Next returns a fresh candidate number for the given account type.
func (g *NumberGenerator) Next(t Type) (string, error) {
	prefix, ok := numberPrefixes[t]
	if !ok {
		return "", ErrInvalidType
	}
	return fmt.Sprintf("%s%08d", prefix, g.intN(numberSuffixMax)), nil
}
