package ledger

import (
	"errors"
	"time"
)

// TxType is the kind of money movement a transaction records.
type TxType string

const (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
	TxTransfer   TxType = "transfer"
	TxInterest   TxType = "interest"
)

// TxStatus is the lifecycle state of a transaction record. Completed and
// failed are terminal; the record is immutable once it reaches either.
// Corrections are posted as new compensating transactions, never as edits.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

// Domain errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrSameAccount        = errors.New("transfer source and destination must differ")
	ErrConflict           = errors.New("operation conflicted, retry with backoff")
	ErrDuplicateReference = errors.New("duplicate transaction reference")
	ErrNotAccruable       = errors.New("account type does not accrue interest")
	ErrUnavailable        = errors.New("ledger storage unavailable")
	ErrTxNotFound         = errors.New("transaction not found")
	ErrTxImmutable        = errors.New("transaction record is immutable")
)

// Transaction is one immutable entry in the append-only ledger.
// FromAccountID is empty for deposits and interest postings; ToAccountID is
// empty for withdrawals. Amount is always positive, in minor units.
type Transaction struct {
	ID              string    `json:"id"`
	FromAccountID   string    `json:"fromAccountId,omitempty"`
	ToAccountID     string    `json:"toAccountId,omitempty"`
	Amount          int64     `json:"amount"`
	Type            TxType    `json:"type"`
	Description     string    `json:"description,omitempty"`
	ReferenceNumber string    `json:"referenceNumber"`
	Status          TxStatus  `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate checks the per-type endpoint rules: a transfer names two distinct
// accounts, a deposit or interest posting only a destination, a withdrawal
// only a source.
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.ReferenceNumber == "" {
		return errors.New("reference number is required")
	}
	switch t.Type {
	case TxTransfer:
		if t.FromAccountID == "" || t.ToAccountID == "" {
			return errors.New("transfer requires both source and destination")
		}
		if t.FromAccountID == t.ToAccountID {
			return ErrSameAccount
		}
	case TxDeposit, TxInterest:
		if t.ToAccountID == "" || t.FromAccountID != "" {
			return errors.New("credit requires only a destination account")
		}
	case TxWithdrawal:
		if t.FromAccountID == "" || t.ToAccountID != "" {
			return errors.New("withdrawal requires only a source account")
		}
	default:
		return errors.New("unknown transaction type")
	}
	return nil
}

// Filter narrows a transaction history query. Zero values mean "no
// constraint"; Limit 0 falls back to the store's default page size.
type Filter struct {
	Type   TxType
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
