package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/domain/money"
)

// AccountResponse is the wire shape of an account. Balance is formatted as a
// decimal string; raw minor units never cross the HTTP boundary.
type AccountResponse struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	Number         string `json:"number"`
	Type           string `json:"type"`
	Balance        string `json:"balance"`
	Status         string `json:"status"`
	InterestRateBP int64  `json:"interestRateBp,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

func toAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:             acc.ID,
		OwnerID:        acc.OwnerID,
		Number:         acc.Number,
		Type:           string(acc.Type),
		Balance:        money.Format(acc.Balance),
		Status:         string(acc.Status),
		InterestRateBP: acc.InterestRateBP,
		CreatedAt:      acc.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TransactionResponse is the wire shape of a ledger entry.
type TransactionResponse struct {
	ID              string `json:"id"`
	FromAccountID   string `json:"fromAccountId,omitempty"`
	ToAccountID     string `json:"toAccountId,omitempty"`
	Amount          string `json:"amount"`
	Type            string `json:"type"`
	Description     string `json:"description,omitempty"`
	ReferenceNumber string `json:"referenceNumber"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

func toTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		FromAccountID:   tx.FromAccountID,
		ToAccountID:     tx.ToAccountID,
		Amount:          money.Format(tx.Amount),
		Type:            string(tx.Type),
		Description:     tx.Description,
		ReferenceNumber: tx.ReferenceNumber,
		Status:          string(tx.Status),
		CreatedAt:       tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponses(txs []*ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeDomainError maps ledger and account errors onto HTTP statuses. Unknown
// errors are logged and surfaced as 500 without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound), errors.Is(err, ledger.ErrTxNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, account.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, account.ErrInsufficientFunds):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "insufficient funds"})
	case errors.Is(err, account.ErrInactive):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "account is not active"})
	case errors.Is(err, account.ErrClosedIsTerminal):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, account.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "operation conflicted, retry"})
	case errors.Is(err, ledger.ErrNotAccruable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, money.ErrMalformedAmount),
		errors.Is(err, money.ErrTooPrecise):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, account.ErrGenerationExhausted):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "could not allocate account number"})
	case errors.Is(err, ledger.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "ledger temporarily unavailable"})
	default:
		logrus.WithError(err).Error("unhandled domain error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
