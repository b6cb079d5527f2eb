package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"corebank/internal/domain/account"
	"corebank/internal/domain/ledger"
	"corebank/internal/infrastructure/memory"
	"corebank/internal/shared/middleware"
)

type testAPI struct {
	accounts *account.Service
	store    *memory.AccountRepository
	engine   *ledger.Engine
	handler  *AccountHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewAccountRepository()
	log := memory.NewTransactionLog()
	svc := account.NewService(store, account.NewNumberGenerator())
	engine := ledger.NewEngine(store, log, ledger.NewReferenceGenerator(), ledger.Options{})
	return &testAPI{
		accounts: svc,
		store:    store,
		engine:   engine,
		handler:  NewAccountHandler(svc, engine),
	}
}

func (api *testAPI) openAccount(t *testing.T, ownerID string, typ account.Type, balance int64) *account.Account {
	t.Helper()
	acc, err := api.accounts.Open(context.Background(), account.OpenParams{
		OwnerID: ownerID,
		Type:    typ,
	})
	if err != nil {
		t.Fatalf("opening account: %v", err)
	}
	if balance > 0 {
		if _, err := api.engine.Deposit(context.Background(), acc.ID, balance, "seed"); err != nil {
			t.Fatalf("seeding balance: %v", err)
		}
	}
	return acc
}

func authedRequest(method, target, userID string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestHandleOpenAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           OpenAccountRequest
		expectedStatus int
	}{
		{
			name:           "Checking Account",
			body:           OpenAccountRequest{Type: "checking"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Savings With Rate And Deposit",
			body:           OpenAccountRequest{Type: "savings", InterestRateBP: 240, InitialDeposit: "100.00"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Unknown Type",
			body:           OpenAccountRequest{Type: "offshore"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Rate On Checking",
			body:           OpenAccountRequest{Type: "checking", InterestRateBP: 100},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Sub-Cent Deposit",
			body:           OpenAccountRequest{Type: "savings", InitialDeposit: "10.005"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			req := authedRequest(http.MethodPost, "/api/accounts/", "usr-1", tt.body)
			rr := httptest.NewRecorder()

			api.handler.HandleAccounts(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp AccountResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.OwnerID != "usr-1" {
				t.Errorf("ownerId = %q, want usr-1", resp.OwnerID)
			}
			if resp.Status != "active" {
				t.Errorf("status = %q, want active", resp.Status)
			}
			if tt.body.InitialDeposit == "100.00" && resp.Balance != "100.00" {
				t.Errorf("balance = %q, want 100.00", resp.Balance)
			}
		})
	}
}

func TestHandleListAccounts(t *testing.T) {
	api := newTestAPI(t)
	api.openAccount(t, "usr-1", account.TypeChecking, 0)
	api.openAccount(t, "usr-1", account.TypeSavings, 0)
	api.openAccount(t, "usr-2", account.TypeChecking, 0)

	req := authedRequest(http.MethodGet, "/api/accounts/", "usr-1", nil)
	rr := httptest.NewRecorder()
	api.handler.HandleAccounts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp []AccountResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("listed %d accounts, want 2", len(resp))
	}
}

func TestHandleAccountByID(t *testing.T) {
	api := newTestAPI(t)
	acc := api.openAccount(t, "usr-1", account.TypeChecking, 5000)

	tests := []struct {
		name           string
		userID         string
		accountID      string
		expectedStatus int
	}{
		{"Owner Sees Account", "usr-1", acc.ID, http.StatusOK},
		{"Other User Forbidden", "usr-2", acc.ID, http.StatusForbidden},
		{"Unknown Account", "usr-1", "nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, "/api/accounts/"+tt.accountID, tt.userID, nil)
			req.SetPathValue("id", tt.accountID)
			rr := httptest.NewRecorder()

			api.handler.HandleAccountByID(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleDepositAndWithdraw(t *testing.T) {
	api := newTestAPI(t)
	acc := api.openAccount(t, "usr-1", account.TypeChecking, 0)

	// Deposit 30.00
	req := authedRequest(http.MethodPost, "/api/accounts/"+acc.ID+"/deposit", "usr-1", CashRequest{Amount: "30.00"})
	req.SetPathValue("id", acc.ID)
	rr := httptest.NewRecorder()
	api.handler.HandleDeposit(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}
	var tx TransactionResponse
	json.NewDecoder(rr.Body).Decode(&tx)
	if tx.Amount != "30.00" || tx.Type != "deposit" || tx.Status != "completed" {
		t.Errorf("unexpected deposit response: %+v", tx)
	}

	// Withdraw 10.50
	req = authedRequest(http.MethodPost, "/api/accounts/"+acc.ID+"/withdraw", "usr-1", CashRequest{Amount: "10.50"})
	req.SetPathValue("id", acc.ID)
	rr = httptest.NewRecorder()
	api.handler.HandleWithdraw(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("withdraw status = %d, want 201 (body %s)", rr.Code, rr.Body.String())
	}

	got, _ := api.store.GetByID(context.Background(), acc.ID)
	if got.Balance != 1950 {
		t.Errorf("balance = %d, want 1950", got.Balance)
	}
}

func TestHandleWithdraw_InsufficientFunds(t *testing.T) {
	api := newTestAPI(t)
	acc := api.openAccount(t, "usr-1", account.TypeChecking, 500)

	req := authedRequest(http.MethodPost, "/api/accounts/"+acc.ID+"/withdraw", "usr-1", CashRequest{Amount: "10.00"})
	req.SetPathValue("id", acc.ID)
	rr := httptest.NewRecorder()
	api.handler.HandleWithdraw(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}

	got, _ := api.store.GetByID(context.Background(), acc.ID)
	if got.Balance != 500 {
		t.Errorf("balance changed on rejected withdrawal: %d", got.Balance)
	}
}

func TestHandleDeposit_NotOwner(t *testing.T) {
	api := newTestAPI(t)
	acc := api.openAccount(t, "usr-1", account.TypeChecking, 0)

	req := authedRequest(http.MethodPost, "/api/accounts/"+acc.ID+"/deposit", "usr-2", CashRequest{Amount: "30.00"})
	req.SetPathValue("id", acc.ID)
	rr := httptest.NewRecorder()
	api.handler.HandleDeposit(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestHandleAccountTransactions(t *testing.T) {
	api := newTestAPI(t)
	acc := api.openAccount(t, "usr-1", account.TypeChecking, 0)

	for i := 0; i < 3; i++ {
		if _, err := api.engine.Deposit(context.Background(), acc.ID, 1000, "pay"); err != nil {
			t.Fatalf("seeding deposits: %v", err)
		}
	}
	if _, err := api.engine.Withdraw(context.Background(), acc.ID, 500, "fee"); err != nil {
		t.Fatalf("seeding withdrawal: %v", err)
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantCode  int
	}{
		{"All", "", 4, http.StatusOK},
		{"Deposits Only", "?type=deposit", 3, http.StatusOK},
		{"Limited", "?limit=2", 2, http.StatusOK},
		{"Bad Timestamp", "?from=yesterday", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodGet, "/api/accounts/"+acc.ID+"/transactions"+tt.query, "usr-1", nil)
			req.SetPathValue("id", acc.ID)
			rr := httptest.NewRecorder()
			api.handler.HandleAccountTransactions(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp []TransactionResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if len(resp) != tt.wantCount {
				t.Errorf("got %d transactions, want %d", len(resp), tt.wantCount)
			}
		})
	}
}

func TestHandleAccounts_Unauthenticated(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/", nil)
	rr := httptest.NewRecorder()
	api.handler.HandleAccounts(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}
