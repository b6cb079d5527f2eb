package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// errLockTimeout is internal; the engine surfaces it as ErrConflict so
// callers see one retryable category for both lock contention and version
// mismatches.
var errLockTimeout = errors.New("timed out acquiring account lock")

// lockTable hands out one lock per account ID. Multi-account operations must
// acquire in ascending ID order, which Acquire enforces by sorting, so two
// transfers over the same pair in opposite directions can never deadlock.
// Locks are channel-based so acquisition can time out and respect context
// cancellation instead of blocking forever.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]chan struct{})}
}

func (t *lockTable) chanFor(id string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		t.locks[id] = ch
	}
	return ch
}

// Acquire locks the given account IDs (deduplicated, ascending order) within
// the timeout. On success it returns a release func; on failure it releases
// anything it had taken and returns errLockTimeout or the context error.
func (t *lockTable) Acquire(ctx context.Context, timeout time.Duration, ids ...string) (func(), error) {
	ordered := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	deadline := time.Now().Add(timeout)
	held := make([]chan struct{}, 0, len(ordered))

	release := func() {
		// Reverse order of acquisition.
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, id := range ordered {
		ch := t.chanFor(id)
		remaining := time.Until(deadline)
		if remaining <= 0 {
			release()
			return nil, errLockTimeout
		}

		timer := time.NewTimer(remaining)
		select {
		case ch <- struct{}{}:
			timer.Stop()
			held = append(held, ch)
		case <-timer.C:
			release()
			return nil, errLockTimeout
		case <-ctx.Done():
			timer.Stop()
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}
