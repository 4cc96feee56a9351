package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
)

func TestAccountHandler_Create_Success(t *testing.T) {
	sessions := newDemoSessions(t)
	h := NewAccountHandler(sessions)

	rec := serve(h.Create, newRequest(t, http.MethodPost, "/accounts", dto.CreateAccountRequest{
		Name:           "Emergency Fund",
		Type:           "FD",
		OpeningBalance: "250",
	}))
	expectStatus(t, rec, http.StatusCreated)

	resp := decodeBody[dto.AccountResponse](t, rec)
	if resp.ID == "" || resp.Type != string(domain.AccountTypeFixedDeposit) || resp.Balance != "250" || !resp.Active {
		t.Fatalf("unexpected account %+v", resp)
	}

	list := decodeBody[dto.ListAccountsResponse](t, serve(h.List, newRequest(t, http.MethodGet, "/accounts", nil)))
	if list.Total != 4 || list.Accounts[3].ID != resp.ID {
		t.Fatalf("expected new account appended, got %+v", list)
	}
}

func TestAccountHandler_Create_Invalid(t *testing.T) {
	h := NewAccountHandler(newDemoSessions(t))

	tests := []struct {
		name string
		body dto.CreateAccountRequest
		rule string
	}{
		{"unknown type", dto.CreateAccountRequest{Name: "x", Type: "Vault"}, domain.RuleAccountType},
		{"blank name", dto.CreateAccountRequest{Name: "  ", Type: "Cash"}, domain.RuleAccountName},
		{"negative opening balance", dto.CreateAccountRequest{Name: "x", Type: "Cash", OpeningBalance: "-1"}, domain.RuleOpeningBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectRule(t, serve(h.Create, newRequest(t, http.MethodPost, "/accounts", tt.body)), tt.rule)
		})
	}
}

func TestAccountHandler_RequiresIdentity(t *testing.T) {
	h := NewAccountHandler(newDemoSessions(t))

	rec := serve(h.List, httptest.NewRequest(http.MethodGet, "/accounts", nil))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAccountHandler_Get(t *testing.T) {
	h := NewAccountHandler(newDemoSessions(t))

	rec := serve(h.Get, withURLParam(newRequest(t, http.MethodGet, "/accounts/"+savingsAccount, nil), "id", savingsAccount))
	expectStatus(t, rec, http.StatusOK)
	if resp := decodeBody[dto.AccountResponse](t, rec); resp.Name != "Savings Account" || resp.Balance != "12000" {
		t.Fatalf("unexpected account %+v", resp)
	}

	rec = serve(h.Get, withURLParam(newRequest(t, http.MethodGet, "/accounts/missing", nil), "id", "missing"))
	expectStatus(t, rec, http.StatusNotFound)
}

func TestAccountHandler_UpdateStatus(t *testing.T) {
	sessions := newDemoSessions(t)
	h := NewAccountHandler(sessions)

	inactive := false
	req := withURLParam(newRequest(t, http.MethodPatch, "/accounts/"+cardAccount+"/status", dto.UpdateAccountStatusRequest{Active: &inactive}), "id", cardAccount)
	rec := serve(h.UpdateStatus, req)
	expectStatus(t, rec, http.StatusOK)
	if resp := decodeBody[dto.AccountResponse](t, rec); resp.Active || resp.Balance != "-800" {
		t.Fatalf("expected deactivated card with untouched balance, got %+v", resp)
	}

	list := decodeBody[dto.ListAccountsResponse](t, serve(h.List, newRequest(t, http.MethodGet, "/accounts?active=true", nil)))
	if list.Total != 2 {
		t.Fatalf("expected 2 active accounts, got %d", list.Total)
	}

	req = withURLParam(newRequest(t, http.MethodPatch, "/accounts/"+cardAccount+"/status", map[string]any{}), "id", cardAccount)
	expectStatus(t, serve(h.UpdateStatus, req), http.StatusBadRequest)
}

func TestAccountHandler_ListTransactions(t *testing.T) {
	h := NewAccountHandler(newDemoSessions(t))

	rec := serve(h.ListTransactions, withURLParam(newRequest(t, http.MethodGet, "/accounts/"+checkingAccount+"/transactions", nil), "id", checkingAccount))
	expectStatus(t, rec, http.StatusOK)

	resp := decodeBody[dto.ListTransactionsResponse](t, rec)
	if resp.Total != 2 {
		t.Fatalf("expected 2 checking transactions, got %d", resp.Total)
	}
	for _, txn := range resp.Transactions {
		if txn.AccountID != checkingAccount {
			t.Fatalf("unexpected transaction %+v", txn)
		}
	}

	rec = serve(h.ListTransactions, withURLParam(newRequest(t, http.MethodGet, "/accounts/nope/transactions", nil), "id", "nope"))
	expectStatus(t, rec, http.StatusNotFound)
}
