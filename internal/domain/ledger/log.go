package ledger

import "context"

// Log defines the interface for the append-only transaction store.
// Implemented by the infrastructure layer; only the engine writes to it.
type Log interface {
	// Append persists a new transaction record. Returns
	// ErrDuplicateReference when the reference number collides with an
	// existing record, so the caller can mint a fresh reference and retry.
	Append(ctx context.Context, tx *Transaction) error

	// SetStatus moves a pending record to completed or failed. Records
	// already in a terminal status return ErrTxImmutable.
	SetStatus(ctx context.Context, id string, status TxStatus) error

	// GetByReference retrieves a transaction by its unique reference
	// number, or ErrTxNotFound.
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// ListByAccount retrieves the transactions touching an account (as
	// source or destination), newest first, narrowed by the filter.
	ListByAccount(ctx context.Context, accountID string, f Filter) ([]*Transaction, error)
}
