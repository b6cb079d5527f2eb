package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/domain/money"
	"corebank/internal/shared/middleware"
)

// AccountHandler serves the account surface: opening, lookup, history, and
// single-leg cash operations (deposit, withdraw). Transfers live on their
// own handler.
type AccountHandler struct {
	accounts *account.Service
	engine   *ledger.Engine
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *account.Service, engine *ledger.Engine) *AccountHandler {
	return &AccountHandler{accounts: accounts, engine: engine}
}

// HTTP request types (transport layer concerns)
type OpenAccountRequest struct {
	Type           string `json:"type"`
	InterestRateBP int64  `json:"interestRateBp"`
	InitialDeposit string `json:"initialDeposit,omitempty"`
}

type CashRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// HandleAccounts dispatches the collection endpoint: GET lists the caller's
// accounts, POST opens a new one.
func (h *AccountHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListAccounts(w, r)
	case http.MethodPost:
		h.handleOpenAccount(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accounts.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, toAccountResponse(acc))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AccountHandler) handleOpenAccount(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var initialDeposit int64
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = money.Parse(req.InitialDeposit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	params := account.OpenParams{
		OwnerID:        ownerID,
		Type:           account.Type(req.Type),
		InterestRateBP: req.InterestRateBP,
		InitialDeposit: initialDeposit,
	}
	if err := params.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	acc, err := h.accounts.Open(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// An initial deposit goes through the engine like any other credit so it
	// shows up in the transaction history.
	if initialDeposit > 0 {
		if _, err := h.engine.Deposit(r.Context(), acc.ID, initialDeposit, "initial deposit"); err != nil {
			logrus.WithFields(logrus.Fields{
				"account": acc.ID,
			}).WithError(err).Error("Initial deposit failed after account creation")
			writeDomainError(w, err)
			return
		}
		acc, err = h.accounts.Get(r.Context(), acc.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// HandleAccountByID returns a single account owned by the caller.
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.GetOwned(r.Context(), accountID, ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// HandleDeposit credits the caller's account.
func (h *AccountHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleCashOperation(w, r, h.engine.Deposit)
}

// HandleWithdraw debits the caller's account.
func (h *AccountHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleCashOperation(w, r, h.engine.Withdraw)
}

func (h *AccountHandler) handleCashOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string, amount int64, description string) (*ledger.Transaction, error),
) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	// Ownership check before touching the ledger.
	if _, err := h.accounts.GetOwned(r.Context(), accountID, ownerID); err != nil {
		writeDomainError(w, err)
		return
	}

	var req CashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := op(r.Context(), accountID, amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// HandleAccountTransactions returns the account's transaction history,
// newest first, with optional type and time-window filters.
func (h *AccountHandler) HandleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.accounts.GetOwned(r.Context(), accountID, ownerID); err != nil {
		writeDomainError(w, err)
		return
	}

	filter, err := parseHistoryFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	txs, err := h.engine.ListTransactions(r.Context(), accountID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func parseHistoryFilter(r *http.Request) (ledger.Filter, error) {
	var f ledger.Filter

	q := r.URL.Query()
	if v := q.Get("type"); v != "" {
		f.Type = ledger.TxType(v)
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid %q parameter, expected RFC 3339 timestamp", "from")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid %q parameter, expected RFC 3339 timestamp", "to")
		}
		f.To = t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	return f, nil
}
