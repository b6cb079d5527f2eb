package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxNumberAttempts bounds the retry loop for account number collisions.
// An eight-digit random suffix makes consecutive collisions vanishingly
// unlikely, so exhausting this is treated as fatal.
const maxNumberAttempts = 5

// Service contains the business logic for account lifecycle operations.
// Balance mutations are not part of this service; only the ledger engine
// writes balances.
type Service struct {
	repo    Repository
	numbers *NumberGenerator
}

// NewService creates a new account service.
func NewService(repo Repository, numbers *NumberGenerator) *Service {
	return &Service{repo: repo, numbers: numbers}
}

// Open creates a new account with a freshly generated, collision-checked
// account number. The account starts at balance zero; any initial deposit is
// posted by the caller through the ledger engine so that it produces a
// proper transaction record.
func (s *Service) Open(ctx context.Context, params OpenParams) (*Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := s.numbers.Next(params.Type)
		if err != nil {
			return nil, err
		}

		acc, err := s.repo.Create(ctx, CreateParams{
			ID:             uuid.NewString(),
			OwnerID:        params.OwnerID,
			Number:         number,
			Type:           params.Type,
			InterestRateBP: params.InterestRateBP,
		})
		if err == ErrNumberTaken {
			logrus.WithFields(logrus.Fields{
				"number":  number,
				"attempt": attempt,
			}).Warn("Account number collision, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		return acc, nil
	}

	return nil, ErrGenerationExhausted
}

// Get retrieves an account by ID.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetOwned retrieves an account and verifies it belongs to ownerID.
func (s *Service) GetOwned(ctx context.Context, id, ownerID string) (*Account, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return acc, nil
}

// ListByOwner retrieves all accounts for an owner.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*Account, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// SetStatus changes an account's status, enforcing that closed is terminal.
// Admin-only at the transport layer.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Account, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if acc.Status == status {
		return acc, nil
	}
	if acc.Status == StatusClosed {
		return nil, ErrClosedIsTerminal
	}
	if !acc.Status.CanTransitionTo(status) {
		return nil, ErrInvalidStatus
	}

	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account": id,
		"from":    acc.Status,
		"to":      status,
	}).Info("Account status changed")

	return updated, nil
}
