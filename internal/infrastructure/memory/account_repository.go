// Package memory provides map-backed implementations of the ledger's storage
// interfaces, guarded by RWMutexes. It serves single-process deployments and
// gives the test suites a deterministic store with the exact same CAS
// semantics as the postgres driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"corebank/internal/domain/account"
)

// AccountRepository implements account.Repository in memory.
type AccountRepository struct {
	mu       sync.RWMutex
	byID     map[string]*account.Account
	byNumber map[string]string
}

// NewAccountRepository creates an empty in-memory account store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:     make(map[string]*account.Account),
		byNumber: make(map[string]string),
	}
}

func (r *AccountRepository) Create(ctx context.Context, params account.CreateParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNumber[params.Number]; taken {
		return nil, account.ErrNumberTaken
	}

	acc := &account.Account{
		ID:             params.ID,
		OwnerID:        params.OwnerID,
		Number:         params.Number,
		Type:           params.Type,
		Balance:        0,
		Status:         account.StatusActive,
		Version:        1,
		InterestRateBP: params.InterestRateBP,
		CreatedAt:      time.Now().UTC(),
	}
	r.byID[acc.ID] = acc
	r.byNumber[acc.Number] = acc.ID

	cp := *acc
	return &cp, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*account.Account
	for _, acc := range r.byID {
		if acc.OwnerID == ownerID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *AccountRepository) ListAccruable(ctx context.Context) ([]*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*account.Account
	for _, acc := range r.byID {
		if acc.Type.Accrues() && acc.Status == account.StatusActive {
			cp := *acc
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *AccountRepository) MutateBalance(ctx context.Context, id string, delta int64, expectedVersion int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return 0, account.ErrNotFound
	}
	if acc.Version != expectedVersion {
		return 0, account.ErrVersionConflict
	}
	if acc.Balance+delta < 0 {
		return 0, account.ErrInsufficientFunds
	}

	acc.Balance += delta
	acc.Version++
	return acc.Balance, nil
}

func (r *AccountRepository) ApplyAccrual(ctx context.Context, id string, interest int64, expectedVersion int64, period string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return 0, account.ErrNotFound
	}
	if acc.Version != expectedVersion {
		return 0, account.ErrVersionConflict
	}
	// The period marker never moves backwards; a repeat for an already
	// covered period is a no-op.
	if acc.LastAccrualPeriod >= period {
		return acc.Balance, nil
	}

	acc.Balance += interest
	acc.Version++
	acc.LastAccrualPeriod = period
	return acc.Balance, nil
}

func (r *AccountRepository) SetStatus(ctx context.Context, id string, status account.Status) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	acc.Status = status
	// Bumping the version invalidates any balance mutation prepared
	// against the pre-change account state.
	acc.Version++
	cp := *acc
	return &cp, nil
}

func sortByCreation(accs []*account.Account) {
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].CreatedAt.Equal(accs[j].CreatedAt) {
			return accs[i].Number < accs[j].Number
		}
		return accs[i].CreatedAt.Before(accs[j].CreatedAt)
	})
}
