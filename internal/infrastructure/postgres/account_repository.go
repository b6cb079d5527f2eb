package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corebank/internal/domain/account"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// AccountRepository implements account.Repository for PostgreSQL.
// Balance mutations are single-statement compare-and-sets so they are atomic
// without an explicit transaction; the `version` column carries the CAS and
// `account_number` carries a unique index.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, owner_id, account_number, account_type, balance, status, version, interest_rate_bp, last_accrual_period, created_at`

func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO accounts (id, owner_id, account_number, account_type, balance, status, version, interest_rate_bp)
		VALUES ($1, $2, $3, $4, 0, 'active', 1, $5)
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query,
		params.ID, params.OwnerID, params.Number, params.Type, params.InterestRateBP,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, account.ErrNumberTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1 ORDER BY created_at, account_number`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *AccountRepository) ListAccruable(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE status = 'active' AND account_type IN ('savings', 'business', 'investment')
		ORDER BY created_at, account_number`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accruable accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *AccountRepository) MutateBalance(ctx context.Context, id string, delta int64, expectedVersion int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1
		WHERE id = $2 AND version = $3 AND balance + $1 >= 0
		RETURNING balance`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, delta, id, expectedVersion).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, r.mutateFailureCause(ctx, id, expectedVersion)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to mutate balance: %w", err)
	}
	return balance, nil
}

func (r *AccountRepository) ApplyAccrual(ctx context.Context, id string, interest int64, expectedVersion int64, period string) (int64, error) {
	// The period guard keeps last_accrual_period monotonic and makes a
	// repeated accrual for a covered period a no-op rather than a
	// double posting.
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, last_accrual_period = $4
		WHERE id = $2 AND version = $3
		  AND (last_accrual_period IS NULL OR last_accrual_period < $4)
		RETURNING balance`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, interest, id, expectedVersion, period).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		acc, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return 0, getErr
		}
		if acc.Version != expectedVersion {
			return 0, account.ErrVersionConflict
		}
		// Period already covered.
		return acc.Balance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to apply accrual: %w", err)
	}
	return balance, nil
}

func (r *AccountRepository) SetStatus(ctx context.Context, id string, status account.Status) (*account.Account, error) {
	// The version bump makes in-flight balance mutations prepared against
	// the pre-change state fail their compare-and-set.
	query := `UPDATE accounts SET status = $1, version = version + 1 WHERE id = $2 RETURNING ` + accountColumns

	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set account status: %w", err)
	}
	return acc, nil
}

// mutateFailureCause disambiguates a zero-row CAS update: missing account,
// stale version, or overdraft.
func (r *AccountRepository) mutateFailureCause(ctx context.Context, id string, expectedVersion int64) error {
	acc, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if acc.Version != expectedVersion {
		return account.ErrVersionConflict
	}
	return account.ErrInsufficientFunds
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var acc account.Account
	var lastPeriod sql.NullString

	err := row.Scan(
		&acc.ID, &acc.OwnerID, &acc.Number, &acc.Type, &acc.Balance,
		&acc.Status, &acc.Version, &acc.InterestRateBP, &lastPeriod, &acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastPeriod.Valid {
		acc.LastAccrualPeriod = lastPeriod.String
	}
	return &acc, nil
}

func collectAccounts(rows *sql.Rows) ([]*account.Account, error) {
	var out []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return out, nil
}
