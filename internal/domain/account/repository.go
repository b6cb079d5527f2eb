package account

import "context"

// Repository defines the interface for account storage.
// The interface lives in the domain layer and is implemented by the
// infrastructure layer (postgres in production, memory for tests and
// single-process deployments).
type Repository interface {
	// Create persists a new account with a zero balance.
	// Returns ErrNumberTaken when the account number collides with an
	// existing one.
	Create(ctx context.Context, params CreateParams) (*Account, error)

	// GetByID retrieves an account by its ID, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Account, error)

	// ListByOwner retrieves all accounts belonging to an owner.
	ListByOwner(ctx context.Context, ownerID string) ([]*Account, error)

	// ListAccruable retrieves every active account whose type earns
	// interest, for the accrual sweep.
	ListAccruable(ctx context.Context) ([]*Account, error)

	// MutateBalance applies delta (positive or negative) to the account's
	// balance as a compare-and-set against expectedVersion. It fails with
	// ErrInsufficientFunds when the delta would drive the balance below
	// zero, and with ErrVersionConflict when the account changed since it
	// was read. Returns the new balance.
	MutateBalance(ctx context.Context, id string, delta int64, expectedVersion int64) (int64, error)

	// ApplyAccrual credits interest and records the accrual period in a
	// single atomic update, so a crash can never leave the balance
	// credited without the period marked (or vice versa). Same CAS
	// semantics as MutateBalance.
	ApplyAccrual(ctx context.Context, id string, interest int64, expectedVersion int64, period string) (int64, error)

	// SetStatus updates the account status and bumps the version, so a
	// concurrent balance mutation prepared against the old state fails
	// its compare-and-set. Transition rules are enforced by the service;
	// the store only persists.
	SetStatus(ctx context.Context, id string, status Status) (*Account, error)
}
