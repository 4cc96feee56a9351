package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := domain.Account{
		ID:             "acc-1",
		Name:           "Main",
		Type:           domain.AccountTypeSaving,
		OpeningBalance: decimal.RequireFromString("100"),
		Balance:        decimal.RequireFromString("123.45"),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := AccountFromDomain(&account)
	if resp.ID != account.ID || resp.Balance != "123.45" || resp.Type != "Saving" || !resp.Active {
		t.Fatalf("unexpected account response: %+v", resp)
	}

	list := AccountsFromDomain([]domain.Account{account})
	if len(list) != 1 || list[0].ID != account.ID {
		t.Fatalf("AccountsFromDomain returned %+v", list)
	}
}

func TestTransactionFromDomain(t *testing.T) {
	expense := domain.NewExpense("acc-1", decimal.RequireFromString("50"), domain.Date{Year: 2025, Month: 8, Day: 21}, "Food", "lunch")
	expense.ID = "t-1"

	resp := TransactionFromDomain(expense)
	if resp.Category != "Food" || resp.Source != "" || resp.Amount != "50" || resp.Type != "expense" {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["date"] != "2025-08-21" {
		t.Fatalf("expected ISO date, got %v", decoded["date"])
	}
	if _, ok := decoded["transfer_id"]; ok {
		t.Fatal("expected transfer_id to be omitted")
	}
}

func TestMonthlySeriesFromDomain(t *testing.T) {
	series := &domain.MonthlySeries{
		Months:  []domain.Month{{Year: 2025, Month: time.August}},
		Income:  []decimal.Decimal{decimal.NewFromInt(3500)},
		Expense: []decimal.Decimal{decimal.NewFromInt(1050)},
	}

	resp := MonthlySeriesFromDomain(series)
	if len(resp.Months) != 1 || resp.Months[0].Label != "Aug 2025" || resp.Months[0].Month != 8 {
		t.Fatalf("unexpected months %+v", resp.Months)
	}
	if resp.Income[0] != "3500" || resp.Expense[0] != "1050" {
		t.Fatalf("unexpected totals %+v", resp)
	}
}

func TestReconciliationFromReport(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalAccounts:      2,
		ReconciledAccounts: 1,
		Discrepancies: []*usecase.ReconciliationResult{{
			AccountID:         "acc-2",
			RecordedBalance:   decimal.NewFromInt(12),
			CalculatedBalance: decimal.NewFromInt(10),
			Difference:        decimal.NewFromInt(2),
		}},
	}

	resp := ReconciliationFromReport(report)
	if resp.Consistent || len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Difference != "2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
