package http

import (
	"encoding/json"
	"net/http"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/domain/money"
	"corebank/internal/shared/middleware"
)

// TransferHandler serves account-to-account transfers and reference lookups.
type TransferHandler struct {
	accounts *account.Service
	engine   *ledger.Engine
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(accounts *account.Service, engine *ledger.Engine) *TransferHandler {
	return &TransferHandler{accounts: accounts, engine: engine}
}

type CreateTransferRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

// HandleCreateTransfer moves money between two accounts. The caller must own
// the source account; the destination may belong to anyone.
func (h *TransferHandler) HandleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FromAccountID == "" || req.ToAccountID == "" {
		http.Error(w, "fromAccountId and toAccountId are required", http.StatusBadRequest)
		return
	}

	if _, err := h.accounts.GetOwned(r.Context(), req.FromAccountID, ownerID); err != nil {
		writeDomainError(w, err)
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tx, err := h.engine.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// HandleTransferByReference looks up a transaction by its reference number.
// The caller must own one of the accounts involved.
func (h *TransferHandler) HandleTransferByReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ownerID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reference := r.PathValue("reference")
	if reference == "" {
		http.Error(w, "Reference number is required", http.StatusBadRequest)
		return
	}

	tx, err := h.engine.FindTransaction(r.Context(), reference)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if !h.ownsLeg(r, tx, ownerID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *TransferHandler) ownsLeg(r *http.Request, tx *ledger.Transaction, ownerID string) bool {
	for _, id := range []string{tx.FromAccountID, tx.ToAccountID} {
		if id == "" {
			continue
		}
		if _, err := h.accounts.GetOwned(r.Context(), id, ownerID); err == nil {
			return true
		}
	}
	return false
}
