package ledger

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// ReferenceGenerator mints transaction reference numbers that stay unique
// under concurrency: a coarse millisecond timestamp plus an atomically
// incremented sequence, so two calls inside the same millisecond still get
// distinct values. The sequence starts at a random offset so a process
// restart within the same millisecond does not replay the same numbers.
// The transaction log's unique index remains the final arbiter: the engine
// regenerates on ErrDuplicateReference.
type ReferenceGenerator struct {
	seq atomic.Uint64
	now func() time.Time
}

const refSeqMod = 100_000_000

// NewReferenceGenerator creates a generator with a randomized sequence seed.
func NewReferenceGenerator() *ReferenceGenerator {
	g := &ReferenceGenerator{now: time.Now}
	g.seq.Store(rand.Uint64())
	return g
}

// Next returns a fresh reference number, e.g. "TXN-1756166400123-04512963".
func (g *ReferenceGenerator) Next() string {
	n := g.seq.Add(1) % refSeqMod
	return fmt.Sprintf("TXN-%d-%08d", g.now().UnixMilli(), n)
}
