package memory

import (
	"context"
	"sync"

	"corebank/internal/domain/ledger"
)

const defaultPageSize = 50

// TransactionLog implements ledger.Log in memory: an append-only slice plus
// lookup indexes. Records are never removed or rewritten; only the status of
// a pending record may move to a terminal value.
type TransactionLog struct {
	mu    sync.RWMutex
	byID  map[string]*ledger.Transaction
	byRef map[string]string
	order []string
}

// NewTransactionLog creates an empty in-memory transaction log.
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{
		byID:  make(map[string]*ledger.Transaction),
		byRef: make(map[string]string),
	}
}

func (l *TransactionLog) Append(ctx context.Context, tx *ledger.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.byRef[tx.ReferenceNumber]; dup {
		return ledger.ErrDuplicateReference
	}

	cp := *tx
	l.byID[cp.ID] = &cp
	l.byRef[cp.ReferenceNumber] = cp.ID
	l.order = append(l.order, cp.ID)
	return nil
}

func (l *TransactionLog) SetStatus(ctx context.Context, id string, status ledger.TxStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.byID[id]
	if !ok {
		return ledger.ErrTxNotFound
	}
	if tx.Status != ledger.TxPending {
		return ledger.ErrTxImmutable
	}
	tx.Status = status
	return nil
}

func (l *TransactionLog) GetByReference(ctx context.Context, reference string) (*ledger.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byRef[reference]
	if !ok {
		return nil, ledger.ErrTxNotFound
	}
	cp := *l.byID[id]
	return &cp, nil
}

func (l *TransactionLog) ListByAccount(ctx context.Context, accountID string, f ledger.Filter) ([]*ledger.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []*ledger.Transaction
	// Newest first: walk the append order backwards.
	for i := len(l.order) - 1; i >= 0; i-- {
		tx := l.byID[l.order[i]]
		if tx.FromAccountID != accountID && tx.ToAccountID != accountID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
			continue
		}
		matched = append(matched, tx)
	}

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*ledger.Transaction, len(matched))
	for i, tx := range matched {
		cp := *tx
		out[i] = &cp
	}
	return out, nil
}
