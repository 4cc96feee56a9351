package handler

import (
	"net/http"
	"testing"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/internal/domain"
)

func TestTransactionHandler_CreateUpdateDelete(t *testing.T) {
	sessions := newDemoSessions(t)
	h := NewTransactionHandler(sessions)

	rec := serve(h.Create, newRequest(t, http.MethodPost, "/transactions", dto.TransactionRequest{
		Type:      "expense",
		AccountID: checkingAccount,
		Amount:    "120.50",
		Date:      domain.Date{Year: 2025, Month: 9, Day: 1},
		Category:  "Utilities",
	}))
	expectStatus(t, rec, http.StatusCreated)

	created := decodeBody[dto.TransactionResponse](t, rec)
	if created.Category != "Utilities" || created.Amount != "120.5" {
		t.Fatalf("unexpected transaction %+v", created)
	}
	if got := balanceOf(t, sessions, checkingAccount); got != "4879.5" {
		t.Fatalf("expected balance 4879.5, got %s", got)
	}

	req := withURLParam(newRequest(t, http.MethodPut, "/transactions/"+created.ID, dto.TransactionRequest{
		Type:      "expense",
		AccountID: checkingAccount,
		Amount:    "20",
		Date:      domain.Date{Year: 2025, Month: 9, Day: 1},
		Category:  "Utilities",
	}), "id", created.ID)
	rec = serve(h.Update, req)
	expectStatus(t, rec, http.StatusOK)
	if got := balanceOf(t, sessions, checkingAccount); got != "4980" {
		t.Fatalf("expected balance 4980 after update, got %s", got)
	}

	rec = serve(h.Delete, withURLParam(newRequest(t, http.MethodDelete, "/transactions/"+created.ID, nil), "id", created.ID))
	expectStatus(t, rec, http.StatusOK)
	if resp := decodeBody[dto.DeleteTransactionResponse](t, rec); len(resp.Removed) != 1 || resp.Removed[0] != created.ID {
		t.Fatalf("unexpected delete response %+v", resp)
	}
	if got := balanceOf(t, sessions, checkingAccount); got != "5000" {
		t.Fatalf("expected balance restored to 5000, got %s", got)
	}
}

func TestTransactionHandler_CreateRejectsInvalidInput(t *testing.T) {
	h := NewTransactionHandler(newDemoSessions(t))
	date := domain.Date{Year: 2025, Month: 9, Day: 1}

	tests := []struct {
		name string
		body dto.TransactionRequest
		rule string
	}{
		{"income without source", dto.TransactionRequest{Type: "income", AccountID: checkingAccount, Amount: "10", Date: date}, domain.RuleSourceRequired},
		{"zero amount", dto.TransactionRequest{Type: "expense", AccountID: checkingAccount, Amount: "0", Date: date}, domain.RuleAmount},
		{"bad type", dto.TransactionRequest{Type: "refund", AccountID: checkingAccount, Amount: "10", Date: date}, domain.RuleTransactionType},
		{"malformed amount", dto.TransactionRequest{Type: "expense", AccountID: checkingAccount, Amount: "ten", Date: date}, domain.RuleAmount},
		{"sub-cent amount", dto.TransactionRequest{Type: "expense", AccountID: checkingAccount, Amount: "0.001", Date: date, Category: "Food"}, domain.RuleAmountScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectRule(t, serve(h.Create, newRequest(t, http.MethodPost, "/transactions", tt.body)), tt.rule)
		})
	}
}

func TestTransactionHandler_CreateRejectsBadDate(t *testing.T) {
	h := NewTransactionHandler(newDemoSessions(t))

	body := map[string]string{"type": "expense", "account_id": checkingAccount, "amount": "1", "date": "2025-13-01"}
	expectRule(t, serve(h.Create, newRequest(t, http.MethodPost, "/transactions", body)), domain.RuleDate)
}

func TestTransactionHandler_ListFilters(t *testing.T) {
	h := NewTransactionHandler(newDemoSessions(t))

	tests := []struct {
		name  string
		query string
		total int
	}{
		{"all", "", 5},
		{"income only", "?type=income", 2},
		{"by account", "?account_id=" + savingsAccount, 2},
		{"search category", "?q=shop", 1},
		{"paged", "?limit=2&offset=4", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h.List, newRequest(t, http.MethodGet, "/transactions"+tt.query, nil))
			expectStatus(t, rec, http.StatusOK)
			if resp := decodeBody[dto.ListTransactionsResponse](t, rec); resp.Total != tt.total {
				t.Fatalf("expected %d transactions, got %d", tt.total, resp.Total)
			}
		})
	}

	expectRule(t, serve(h.List, newRequest(t, http.MethodGet, "/transactions?type=gift", nil)), domain.RuleTransactionType)
}

func TestTransactionHandler_DeleteMissing(t *testing.T) {
	h := NewTransactionHandler(newDemoSessions(t))

	rec := serve(h.Delete, withURLParam(newRequest(t, http.MethodDelete, "/transactions/nope", nil), "id", "nope"))
	expectStatus(t, rec, http.StatusNotFound)
}
