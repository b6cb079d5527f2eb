package http

import (
	"encoding/json"
	"net/http"

	"corebank/internal/domain/account"
)

// AccrualTrigger is the part of the scheduler the admin surface needs.
type AccrualTrigger interface {
	TriggerNow()
}

// AdminHandler serves the operational endpoints. Routes are mounted behind
// the admin-role middleware.
type AdminHandler struct {
	accounts *account.Service
	accrual  AccrualTrigger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(accounts *account.Service, accrual AccrualTrigger) *AdminHandler {
	return &AdminHandler{accounts: accounts, accrual: accrual}
}

// HandleRunAccrual kicks off an accrual sweep immediately. The sweep is
// idempotent per period, so triggering twice in one month is harmless.
func (h *AdminHandler) HandleRunAccrual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.accrual == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "accrual scheduler is disabled"})
		return
	}

	h.accrual.TriggerNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accrual sweep started"})
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetAccountStatus suspends, reactivates, or closes an account.
func (h *AdminHandler) HandleSetAccountStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := r.PathValue("id")
	if accountID == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.SetStatus(r.Context(), accountID, account.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}
