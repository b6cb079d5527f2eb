package account

import (
	"errors"
	"time"
)

// Type classifies an account. Interest accrues only on savings, business and
// investment accounts.
type Type string

const (
	TypeChecking   Type = "checking"
	TypeSavings    Type = "savings"
	TypeBusiness   Type = "business"
	TypeInvestment Type = "investment"
)

// Status is the lifecycle state of an account. Closed is terminal: the
// account stays readable forever but rejects every mutating operation.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// Domain errors
var (
	ErrNotFound            = errors.New("account not found")
	ErrInactive            = errors.New("account is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrVersionConflict     = errors.New("account version conflict")
	ErrNumberTaken         = errors.New("account number already taken")
	ErrGenerationExhausted = errors.New("account number generation exhausted")
	ErrInvalidType         = errors.New("invalid account type")
	ErrInvalidStatus       = errors.New("invalid account status")
	ErrClosedIsTerminal    = errors.New("closed account cannot change status")
	ErrForbidden           = errors.New("access forbidden")
)

// Account is the ledger's balance-bearing entity. Balance is held in integer
// minor units (cents) and is never negative. Version increases by one on
// every balance mutation and backs the compare-and-set in the store, so a
// stale writer fails with ErrVersionConflict instead of clobbering a
// concurrent update.
type Account struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Number  string `json:"accountNumber"`
	Type    Type   `json:"type"`
	Balance int64  `json:"balance"`
	Status  Status `json:"status"`
	Version int64  `json:"version"`

	// InterestRateBP is the annual interest rate in basis points
	// (240 == 2.40 % p.a.). Zero for checking accounts.
	InterestRateBP int64 `json:"interestRateBp"`

	// LastAccrualPeriod is the YYYY-MM period of the most recent interest
	// posting, empty when interest has never been credited. It only ever
	// moves forward.
	LastAccrualPeriod string `json:"lastAccrualPeriod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Accrues reports whether accounts of this type earn interest.
func (t Type) Accrues() bool {
	switch t {
	case TypeSavings, TypeBusiness, TypeInvestment:
		return true
	}
	return false
}

// IsValid reports whether t is a known account type.
func (t Type) IsValid() bool {
	switch t {
	case TypeChecking, TypeSavings, TypeBusiness, TypeInvestment:
		return true
	}
	return false
}

// IsValid reports whether s is a known account status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status change is allowed. Closed is
// terminal; active and suspended may move between each other or on to closed.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsValid() {
		return false
	}
	if s == StatusClosed {
		return false
	}
	return s != next
}

// CreateParams contains parameters for persisting a new account.
type CreateParams struct {
	ID             string
	OwnerID        string
	Number         string
	Type           Type
	InterestRateBP int64
}

// Validate validates the create parameters.
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required")
	}
	if p.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if p.Number == "" {
		return errors.New("account number is required")
	}
	if !p.Type.IsValid() {
		return ErrInvalidType
	}
	return validateRate(p.Type, p.InterestRateBP)
}

// OpenParams is the account-opening request handed in by the provisioning
// collaborator. InitialDeposit is posted through the ledger engine after the
// account exists, so it appears in the audit trail like any other deposit.
type OpenParams struct {
	OwnerID        string
	Type           Type
	InterestRateBP int64
	InitialDeposit int64
}

// Validate validates the open parameters.
func (p OpenParams) Validate() error {
	if p.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if !p.Type.IsValid() {
		return ErrInvalidType
	}
	if p.InitialDeposit < 0 {
		return errors.New("initial deposit must not be negative")
	}
	return validateRate(p.Type, p.InterestRateBP)
}

func validateRate(t Type, rateBP int64) error {
	if rateBP < 0 {
		return errors.New("interest rate must not be negative")
	}
	if rateBP > 0 && !t.Accrues() {
		return errors.New("interest rate is only valid for savings, business and investment accounts")
	}
	return nil
}
