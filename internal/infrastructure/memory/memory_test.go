package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
)

func createAccount(t *testing.T, repo *AccountRepository, number string, typ account.Type) *account.Account {
	t.Helper()
	acc, err := repo.Create(context.Background(), account.CreateParams{
		ID:      "id-" + number,
		OwnerID: "owner-1",
		Number:  number,
		Type:    typ,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return acc
}

func TestAccountRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	acc := createAccount(t, repo, "CHK00000001", account.TypeChecking)
	if acc.Balance != 0 || acc.Version != 1 || acc.Status != account.StatusActive {
		t.Errorf("new account = %+v, want zero balance, version 1, active", acc)
	}

	// Number uniqueness is enforced by the store.
	_, err := repo.Create(ctx, account.CreateParams{
		ID:      "id-other",
		OwnerID: "owner-2",
		Number:  "CHK00000001",
		Type:    account.TypeChecking,
	})
	if !errors.Is(err, account.ErrNumberTaken) {
		t.Errorf("duplicate number error = %v, want ErrNumberTaken", err)
	}
}

func TestMutateBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc := createAccount(t, repo, "CHK00000002", account.TypeChecking)

	bal, err := repo.MutateBalance(ctx, acc.ID, 5_000, 1)
	if err != nil || bal != 5_000 {
		t.Fatalf("credit = (%d, %v), want (5000, nil)", bal, err)
	}

	// Stale version is rejected, not silently applied.
	if _, err := repo.MutateBalance(ctx, acc.ID, -1_000, 1); !errors.Is(err, account.ErrVersionConflict) {
		t.Errorf("stale mutate error = %v, want ErrVersionConflict", err)
	}

	// Overdraft is rejected.
	if _, err := repo.MutateBalance(ctx, acc.ID, -6_000, 2); !errors.Is(err, account.ErrInsufficientFunds) {
		t.Errorf("overdraft error = %v, want ErrInsufficientFunds", err)
	}

	// Balance and version untouched by the failed attempts.
	reloaded, _ := repo.GetByID(ctx, acc.ID)
	if reloaded.Balance != 5_000 || reloaded.Version != 2 {
		t.Errorf("account after failures = %+v, want balance 5000 version 2", reloaded)
	}
}

func TestApplyAccrual(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc := createAccount(t, repo, "SAV00000001", account.TypeSavings)
	if _, err := repo.MutateBalance(ctx, acc.ID, 100_000, 1); err != nil {
		t.Fatal(err)
	}

	bal, err := repo.ApplyAccrual(ctx, acc.ID, 200, 2, "2026-08")
	if err != nil || bal != 100_200 {
		t.Fatalf("ApplyAccrual = (%d, %v), want (100200, nil)", bal, err)
	}

	reloaded, _ := repo.GetByID(ctx, acc.ID)
	if reloaded.LastAccrualPeriod != "2026-08" {
		t.Errorf("lastAccrualPeriod = %q, want 2026-08", reloaded.LastAccrualPeriod)
	}

	// Same or earlier period is a no-op, so the marker never regresses.
	bal, err = repo.ApplyAccrual(ctx, acc.ID, 200, 3, "2026-08")
	if err != nil || bal != 100_200 {
		t.Errorf("repeat accrual = (%d, %v), want no-op", bal, err)
	}
	bal, err = repo.ApplyAccrual(ctx, acc.ID, 200, 3, "2026-07")
	if err != nil || bal != 100_200 {
		t.Errorf("backdated accrual = (%d, %v), want no-op", bal, err)
	}
}

func TestSetStatusBumpsVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	acc := createAccount(t, repo, "CHK00000009", account.TypeChecking)
	if _, err := repo.MutateBalance(ctx, acc.ID, 5_000, acc.Version); err != nil {
		t.Fatal(err)
	}

	stale, err := repo.GetByID(ctx, acc.ID)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := repo.SetStatus(ctx, acc.ID, account.StatusSuspended)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Version != stale.Version+1 {
		t.Errorf("version = %d, want %d after status change", updated.Version, stale.Version+1)
	}

	// A mutation prepared against the pre-change account must fail its
	// compare-and-set.
	if _, err := repo.MutateBalance(ctx, acc.ID, -1_000, stale.Version); !errors.Is(err, account.ErrVersionConflict) {
		t.Errorf("stale mutate error = %v, want ErrVersionConflict", err)
	}
	if reloaded, _ := repo.GetByID(ctx, acc.ID); reloaded.Balance != 5_000 {
		t.Errorf("balance = %d, want 5000", reloaded.Balance)
	}
}

func TestListAccruable(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	createAccount(t, repo, "CHK00000003", account.TypeChecking)
	sav := createAccount(t, repo, "SAV00000002", account.TypeSavings)
	sus := createAccount(t, repo, "INV00000001", account.TypeInvestment)
	if _, err := repo.SetStatus(ctx, sus.ID, account.StatusSuspended); err != nil {
		t.Fatal(err)
	}

	accs, err := repo.ListAccruable(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(accs) != 1 || accs[0].ID != sav.ID {
		t.Errorf("ListAccruable = %+v, want only the active savings account", accs)
	}
}

func newTx(id, ref, from, to string, kind ledger.TxType, at time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		ID:              id,
		FromAccountID:   from,
		ToAccountID:     to,
		Amount:          100,
		Type:            kind,
		ReferenceNumber: ref,
		Status:          ledger.TxPending,
		CreatedAt:       at,
	}
}

func TestTransactionLogAppend(t *testing.T) {
	ctx := context.Background()
	log := NewTransactionLog()
	now := time.Now().UTC()

	if err := log.Append(ctx, newTx("t1", "REF-1", "", "acc-1", ledger.TxDeposit, now)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	err := log.Append(ctx, newTx("t2", "REF-1", "", "acc-1", ledger.TxDeposit, now))
	if !errors.Is(err, ledger.ErrDuplicateReference) {
		t.Errorf("duplicate ref error = %v, want ErrDuplicateReference", err)
	}

	// Malformed records never reach the log.
	bad := newTx("t3", "REF-2", "acc-1", "acc-1", ledger.TxTransfer, now)
	if err := log.Append(ctx, bad); err == nil {
		t.Error("same-account transfer accepted by log")
	}
}

func TestTransactionLogImmutability(t *testing.T) {
	ctx := context.Background()
	log := NewTransactionLog()
	now := time.Now().UTC()

	if err := log.Append(ctx, newTx("t1", "REF-1", "", "acc-1", ledger.TxDeposit, now)); err != nil {
		t.Fatal(err)
	}
	if err := log.SetStatus(ctx, "t1", ledger.TxCompleted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	// Terminal records cannot be rewritten.
	if err := log.SetStatus(ctx, "t1", ledger.TxFailed); !errors.Is(err, ledger.ErrTxImmutable) {
		t.Errorf("rewrite error = %v, want ErrTxImmutable", err)
	}
	if err := log.SetStatus(ctx, "missing", ledger.TxFailed); !errors.Is(err, ledger.ErrTxNotFound) {
		t.Errorf("missing record error = %v, want ErrTxNotFound", err)
	}
}

func TestTransactionLogListByAccount(t *testing.T) {
	ctx := context.Background()
	log := NewTransactionLog()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []ledger.TxType{ledger.TxDeposit, ledger.TxDeposit, ledger.TxInterest} {
		tx := newTx(string(rune('a'+i)), "REF-"+string(rune('a'+i)), "", "acc-1", kind, base.AddDate(0, 0, i))
		if err := log.Append(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	// A record touching another account never shows up.
	if err := log.Append(ctx, newTx("z", "REF-z", "", "acc-2", ledger.TxDeposit, base)); err != nil {
		t.Fatal(err)
	}

	all, err := log.ListByAccount(ctx, "acc-1", ledger.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	if all[0].ID != "c" {
		t.Errorf("newest-first ordering broken, first = %q", all[0].ID)
	}

	byType, _ := log.ListByAccount(ctx, "acc-1", ledger.Filter{Type: ledger.TxInterest})
	if len(byType) != 1 {
		t.Errorf("type filter returned %d records, want 1", len(byType))
	}

	window, _ := log.ListByAccount(ctx, "acc-1", ledger.Filter{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 2)})
	if len(window) != 1 || window[0].ID != "b" {
		t.Errorf("time window returned %+v, want only record b", window)
	}

	paged, _ := log.ListByAccount(ctx, "acc-1", ledger.Filter{Limit: 1, Offset: 1})
	if len(paged) != 1 || paged[0].ID != "b" {
		t.Errorf("pagination returned %+v, want record b", paged)
	}

	empty, _ := log.ListByAccount(ctx, "acc-1", ledger.Filter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("out-of-range offset returned %d records", len(empty))
	}
}
