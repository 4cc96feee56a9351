package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// DemoLedger builds a small sample ledger for userID whose balances agree with its history.
func DemoLedger(userID string, idGen usecase.IDGenerator, now time.Time) *domain.LedgerData {
	data := &domain.LedgerData{UserID: userID}

	addAccount := func(name string, typ domain.AccountType, opening int64) string {
		data.Accounts = append(data.Accounts, domain.Account{
			ID:             idGen.Generate(),
			UserID:         userID,
			Name:           name,
			Type:           typ,
			OpeningBalance: decimal.NewFromInt(opening),
			Balance:        decimal.NewFromInt(opening),
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		return data.Accounts[len(data.Accounts)-1].ID
	}

	checking := addAccount("Checking Account", domain.AccountTypeSaving, 3550)
	savings := addAccount("Savings Account", domain.AccountTypeSaving, 10200)
	card := addAccount("Credit Card", domain.AccountTypeCreditCard, 0)

	aug := func(day int) domain.Date { return domain.Date{Year: 2025, Month: time.August, Day: day} }
	txns := []*domain.Transaction{
		domain.NewIncome(checking, decimal.NewFromInt(1500), aug(20), "Salary", ""),
		domain.NewExpense(checking, decimal.NewFromInt(50), aug(21), "Food", ""),
		domain.NewExpense(savings, decimal.NewFromInt(200), aug(22), "Transport", ""),
		domain.NewIncome(savings, decimal.NewFromInt(2000), aug(23), "Freelance", ""),
		domain.NewExpense(card, decimal.NewFromInt(800), aug(24), "Shopping", ""),
	}

	for _, t := range txns {
		t.ID = idGen.Generate()
		t.UserID = userID
		t.CreatedAt = now
		data.Transactions = append(data.Transactions, *t)

		for i := range data.Accounts {
			if data.Accounts[i].ID == t.AccountID {
				data.Accounts[i].Balance = data.Accounts[i].Apply(t)
			}
		}
	}

	return data
}
