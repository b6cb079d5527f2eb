package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corebank/internal/domain/account"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	engineTracer   = otel.Tracer("corebank/ledger")
	engineMeter    = otel.Meter("corebank/ledger")
	opDuration, _  = engineMeter.Float64Histogram("ledger.operation.duration", metric.WithDescription("Ledger operation duration in seconds"), metric.WithUnit("s"))
	opTotal, _     = engineMeter.Int64Counter("ledger.operation.total", metric.WithDescription("Ledger operations by type and status"))
	opConflicts, _ = engineMeter.Int64Counter("ledger.operation.conflicts", metric.WithDescription("Retryable conflicts observed by the engine"))
)

const (
	defaultLockTimeout = 2 * time.Second
	defaultMaxRetries  = 3
	conflictBackoff    = 25 * time.Millisecond

	// Attempts to mint a non-colliding reference before giving up. A
	// collision is regenerated internally and never surfaced on first
	// occurrence.
	maxRefAttempts = 3
)

// Options tunes the engine's contention behavior. Zero values fall back to
// defaults.
type Options struct {
	LockTimeout time.Duration
	MaxRetries  int
}

// Engine is the transactional façade of the ledger. It exclusively owns
// mutation of account balances and transaction records: every operation
// acquires the per-account locks it needs (in ascending ID order), mutates
// the account store, appends to the transaction log, and only then releases
// the locks. Retryable conflicts are retried internally a bounded number of
// times before surfacing ErrConflict.
type Engine struct {
	accounts account.Repository
	log      Log
	refs     *ReferenceGenerator
	locks    *lockTable

	lockTimeout time.Duration
	maxRetries  int
	now         func() time.Time
}

// NewEngine creates a ledger engine over the given stores.
func NewEngine(accounts account.Repository, log Log, refs *ReferenceGenerator, opts Options) *Engine {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	return &Engine{
		accounts:    accounts,
		log:         log,
		refs:        refs,
		locks:       newLockTable(),
		lockTimeout: opts.LockTimeout,
		maxRetries:  opts.MaxRetries,
		now:         time.Now,
	}
}

// Deposit credits an account and records a completed deposit transaction.
func (e *Engine) Deposit(ctx context.Context, toID string, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if toID == "" {
		return nil, account.ErrNotFound
	}

	return e.run(ctx, "deposit", func(ctx context.Context) (*Transaction, error) {
		release, err := e.locks.Acquire(ctx, e.lockTimeout, toID)
		if err != nil {
			return nil, asConflict(err)
		}
		defer release()

		acc, err := e.accounts.GetByID(ctx, toID)
		if err != nil {
			return nil, err
		}
		if acc.Status != account.StatusActive {
			return nil, account.ErrInactive
		}

		tx := e.newTransaction(TxDeposit, "", toID, amount, description)
		if err := e.append(ctx, tx); err != nil {
			return nil, err
		}

		if _, err := e.accounts.MutateBalance(ctx, toID, amount, acc.Version); err != nil {
			e.finalize(ctx, tx, TxFailed)
			return nil, asConflict(err)
		}

		return tx, e.finalize(ctx, tx, TxCompleted)
	})
}

// Withdraw debits an account and records a completed withdrawal transaction.
// Fails with account.ErrInsufficientFunds, leaving no record, when the
// balance does not cover the amount.
func (e *Engine) Withdraw(ctx context.Context, fromID string, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromID == "" {
		return nil, account.ErrNotFound
	}

	return e.run(ctx, "withdraw", func(ctx context.Context) (*Transaction, error) {
		release, err := e.locks.Acquire(ctx, e.lockTimeout, fromID)
		if err != nil {
			return nil, asConflict(err)
		}
		defer release()

		acc, err := e.accounts.GetByID(ctx, fromID)
		if err != nil {
			return nil, err
		}
		if acc.Status != account.StatusActive {
			return nil, account.ErrInactive
		}
		if acc.Balance < amount {
			return nil, account.ErrInsufficientFunds
		}

		tx := e.newTransaction(TxWithdrawal, fromID, "", amount, description)
		if err := e.append(ctx, tx); err != nil {
			return nil, err
		}

		if _, err := e.accounts.MutateBalance(ctx, fromID, -amount, acc.Version); err != nil {
			e.finalize(ctx, tx, TxFailed)
			return nil, asConflict(err)
		}

		return tx, e.finalize(ctx, tx, TxCompleted)
	})
}

// Transfer atomically moves amount between two accounts. Both legs succeed
// or neither: a failed credit is compensated by re-crediting the source
// before the locks are released, so no partial state is ever observable and
// the combined balance of the pair is conserved under every outcome.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromID == "" || toID == "" {
		return nil, account.ErrNotFound
	}
	if fromID == toID {
		return nil, ErrSameAccount
	}

	return e.run(ctx, "transfer", func(ctx context.Context) (*Transaction, error) {
		release, err := e.locks.Acquire(ctx, e.lockTimeout, fromID, toID)
		if err != nil {
			return nil, asConflict(err)
		}
		defer release()

		// Re-read both sides under lock; balances may have moved since
		// any earlier check by the caller.
		from, err := e.accounts.GetByID(ctx, fromID)
		if err != nil {
			return nil, err
		}
		to, err := e.accounts.GetByID(ctx, toID)
		if err != nil {
			return nil, err
		}
		if from.Status != account.StatusActive || to.Status != account.StatusActive {
			return nil, account.ErrInactive
		}
		if from.Balance < amount {
			return nil, account.ErrInsufficientFunds
		}

		tx := e.newTransaction(TxTransfer, fromID, toID, amount, description)
		if err := e.append(ctx, tx); err != nil {
			return nil, err
		}

		if _, err := e.accounts.MutateBalance(ctx, fromID, -amount, from.Version); err != nil {
			e.finalize(ctx, tx, TxFailed)
			return nil, asConflict(err)
		}

		if _, err := e.accounts.MutateBalance(ctx, toID, amount, to.Version); err != nil {
			// Compensate the debit before releasing the locks. The
			// debit bumped the source version by exactly one, and no
			// other writer can touch it while we hold its lock.
			if _, rbErr := e.accounts.MutateBalance(ctx, fromID, amount, from.Version+1); rbErr != nil {
				logrus.WithFields(logrus.Fields{
					"transaction": tx.ID,
					"from":        fromID,
					"error":       rbErr,
				}).Error("Transfer rollback failed, ledger requires intervention")
				e.finalize(ctx, tx, TxFailed)
				return nil, fmt.Errorf("%w: credit failed and rollback errored: %v", ErrUnavailable, rbErr)
			}
			e.finalize(ctx, tx, TxFailed)
			return nil, asConflict(err)
		}

		return tx, e.finalize(ctx, tx, TxCompleted)
	})
}

// AccrueInterest posts one accrual period's interest to an account. It is
// idempotent per period: when the account's last accrual period already
// covers now, it returns (nil, nil) and changes nothing. The record is
// appended before the credit, like every other operation, so interest can
// never land on a balance without a transaction in the log; the credit and
// the period marker themselves are one store update, so a crash can never
// leave one without the other. Returns (nil, nil) as well when the computed
// interest rounds to zero.
func (e *Engine) AccrueInterest(ctx context.Context, accountID string, now time.Time) (*Transaction, error) {
	if accountID == "" {
		return nil, account.ErrNotFound
	}

	return e.run(ctx, "accrue_interest", func(ctx context.Context) (*Transaction, error) {
		release, err := e.locks.Acquire(ctx, e.lockTimeout, accountID)
		if err != nil {
			return nil, asConflict(err)
		}
		defer release()

		acc, err := e.accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if !acc.Type.Accrues() {
			return nil, ErrNotAccruable
		}
		if acc.Status != account.StatusActive {
			return nil, account.ErrInactive
		}

		period := PeriodOf(now)
		if acc.LastAccrualPeriod >= period {
			return nil, nil
		}

		interest := MonthlyInterest(acc.Balance, acc.InterestRateBP)
		if interest <= 0 {
			return nil, nil
		}

		tx := e.newTransaction(TxInterest, "", accountID, interest, "interest "+period)
		if err := e.append(ctx, tx); err != nil {
			return nil, err
		}

		if _, err := e.accounts.ApplyAccrual(ctx, accountID, interest, acc.Version, period); err != nil {
			e.finalize(ctx, tx, TxFailed)
			return nil, asConflict(err)
		}

		return tx, e.finalize(ctx, tx, TxCompleted)
	})
}

// ListTransactions returns an account's history through the façade.
func (e *Engine) ListTransactions(ctx context.Context, accountID string, f Filter) ([]*Transaction, error) {
	if accountID == "" {
		return nil, account.ErrNotFound
	}
	return e.log.ListByAccount(ctx, accountID, f)
}

// FindTransaction looks a transaction up by its reference number.
func (e *Engine) FindTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if reference == "" {
		return nil, ErrTxNotFound
	}
	return e.log.GetByReference(ctx, reference)
}

// run wraps one engine operation with tracing, metrics, and the bounded
// conflict retry loop.
func (e *Engine) run(ctx context.Context, op string, fn func(context.Context) (*Transaction, error)) (*Transaction, error) {
	ctx, span := engineTracer.Start(ctx, "ledger."+op,
		trace.WithAttributes(attribute.String("ledger.op", op)),
	)
	defer span.End()

	start := time.Now()
	var tx *Transaction
	var err error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			opConflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
			logrus.WithFields(logrus.Fields{"op": op, "attempt": attempt}).Warn("Retrying ledger operation after conflict")

			timer := time.NewTimer(time.Duration(attempt) * conflictBackoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		tx, err = fn(ctx)
		if !errors.Is(err, ErrConflict) {
			break
		}
	}

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	opTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
	opDuration.Record(ctx, time.Since(start).Seconds())

	return tx, err
}

func (e *Engine) newTransaction(kind TxType, fromID, toID string, amount int64, description string) *Transaction {
	return &Transaction{
		ID:              uuid.NewString(),
		FromAccountID:   fromID,
		ToAccountID:     toID,
		Amount:          amount,
		Type:            kind,
		Description:     description,
		ReferenceNumber: e.refs.Next(),
		Status:          TxPending,
		CreatedAt:       e.now().UTC(),
	}
}

// append persists a new record, regenerating the reference on collision.
func (e *Engine) append(ctx context.Context, tx *Transaction) error {
	for attempt := 0; attempt < maxRefAttempts; attempt++ {
		err := e.log.Append(ctx, tx)
		if !errors.Is(err, ErrDuplicateReference) {
			return err
		}
		tx.ReferenceNumber = e.refs.Next()
	}
	return fmt.Errorf("%w: exhausted %d reference attempts", ErrDuplicateReference, maxRefAttempts)
}

// finalize moves the record to its terminal status. A failure here means the
// log cannot be trusted, so it surfaces as ErrUnavailable.
func (e *Engine) finalize(ctx context.Context, tx *Transaction, status TxStatus) error {
	if err := e.log.SetStatus(ctx, tx.ID, status); err != nil {
		logrus.WithFields(logrus.Fields{"transaction": tx.ID, "status": status, "error": err}).Error("Failed to finalize transaction record")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tx.Status = status
	return nil
}

// asConflict folds lock timeouts and store version mismatches into the
// single retryable ErrConflict category; everything else passes through.
func asConflict(err error) error {
	if errors.Is(err, errLockTimeout) || errors.Is(err, account.ErrVersionConflict) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
