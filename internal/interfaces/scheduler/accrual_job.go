package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
)

// AccrualJob posts monthly interest to a single savings account. The engine
// skips accounts already credited for the current period, so re-submitting a
// job is harmless.
type AccrualJob struct {
	accountID string
	engine    *ledger.Engine
}

// NewAccrualJob creates an interest accrual job for one account.
func NewAccrualJob(accountID string, engine *ledger.Engine) *AccrualJob {
	return &AccrualJob{
		accountID: accountID,
		engine:    engine,
	}
}

// Execute posts interest for the account's current period.
func (j *AccrualJob) Execute(ctx context.Context) error {
	tx, err := j.engine.AccrueInterest(ctx, j.accountID, time.Now())
	if err != nil {
		return fmt.Errorf("accrual failed: %w", err)
	}

	if tx == nil {
		logrus.WithField("account_id", j.accountID).Debug("Accrual skipped, period already covered")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"account_id": j.accountID,
		"amount":     tx.Amount,
		"reference":  tx.ReferenceNumber,
	}).Info("Interest posted")

	return nil
}

// AccountID returns the account this job operates on.
func (j *AccrualJob) AccountID() string {
	return j.accountID
}

// Description returns a human-readable description of the job.
func (j *AccrualJob) Description() string {
	return fmt.Sprintf("Interest accrual for account %s", j.accountID)
}

// AccrualJobProvider builds one accrual job per interest-bearing account.
// Suspended and closed accounts are filtered by the repository; accounts
// already credited for the current period are skipped inside the engine.
func AccrualJobProvider(accounts account.Repository, engine *ledger.Engine) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		accruable, err := accounts.ListAccruable(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing accruable accounts: %w", err)
		}

		jobs := make([]Job, 0, len(accruable))
		for _, acc := range accruable {
			jobs = append(jobs, NewAccrualJob(acc.ID, engine))
		}
		return jobs, nil
	}
}
