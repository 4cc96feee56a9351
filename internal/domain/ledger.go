package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerData is a user's complete set of accounts and transactions as held by a backend.
type LedgerData struct {
	UserID       string
	Accounts     []Account
	Transactions []Transaction
}

// CheckShape verifies that ids are unique (I4), every transaction references a
// known account (I2) and carries a valid shape (I3).
func (d *LedgerData) CheckShape() error {
	accounts := make(map[string]struct{}, len(d.Accounts))
	for i := range d.Accounts {
		a := &d.Accounts[i]
		if a.ID == "" {
			return fmt.Errorf("account at position %d has no id", i)
		}
		if _, dup := accounts[a.ID]; dup {
			return fmt.Errorf("duplicate account id %q", a.ID)
		}
		accounts[a.ID] = struct{}{}
	}

	txIDs := make(map[string]struct{}, len(d.Transactions))
	for i := range d.Transactions {
		t := &d.Transactions[i]
		if t.ID == "" {
			return fmt.Errorf("transaction at position %d has no id", i)
		}
		if _, dup := txIDs[t.ID]; dup {
			return fmt.Errorf("duplicate transaction id %q", t.ID)
		}
		txIDs[t.ID] = struct{}{}

		if _, ok := accounts[t.AccountID]; !ok {
			return fmt.Errorf("transaction %q references unknown account %q", t.ID, t.AccountID)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %q: %w", t.ID, err)
		}
	}

	return nil
}

// BalanceDiscrepancy describes an account whose stored balance disagrees with its history.
type BalanceDiscrepancy struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
}

// Difference is recorded minus calculated.
func (d BalanceDiscrepancy) Difference() decimal.Decimal {
	return d.RecordedBalance.Sub(d.CalculatedBalance)
}

// ExpectedBalances computes openingBalance + Σincome − Σexpense for every account.
func ExpectedBalances(accounts []Account, transactions []Transaction) map[string]decimal.Decimal {
	expected := make(map[string]decimal.Decimal, len(accounts))
	for i := range accounts {
		expected[accounts[i].ID] = accounts[i].OpeningBalance
	}
	for i := range transactions {
		t := &transactions[i]
		if bal, ok := expected[t.AccountID]; ok {
			expected[t.AccountID] = bal.Add(t.SignedAmount())
		}
	}
	return expected
}

// ReconcileBalances returns every account whose balance disagrees with its history, in account order.
func ReconcileBalances(accounts []Account, transactions []Transaction) []BalanceDiscrepancy {
	expected := ExpectedBalances(accounts, transactions)

	var out []BalanceDiscrepancy
	for i := range accounts {
		a := &accounts[i]
		if !a.Balance.Equal(expected[a.ID]) {
			out = append(out, BalanceDiscrepancy{
				AccountID:         a.ID,
				RecordedBalance:   a.Balance,
				CalculatedBalance: expected[a.ID],
			})
		}
	}
	return out
}

// ChangeKind names the mutation a Changeset records.
type ChangeKind string

const (
	ChangeAccountCreated       ChangeKind = "account.created"
	ChangeAccountStatusChanged ChangeKind = "account.status_changed"
	ChangeTransactionRecorded  ChangeKind = "transaction.recorded"
	ChangeTransferCompleted    ChangeKind = "transfer.completed"
	ChangeTransactionUpdated   ChangeKind = "transaction.updated"
	ChangeTransactionDeleted   ChangeKind = "transaction.deleted"
)

// BalanceChange is the new balance of one account.
type BalanceChange struct {
	AccountID string
	Balance   decimal.Decimal
}

// StatusChange is the new active flag of one account.
type StatusChange struct {
	AccountID string
	Active    bool
}

// Changeset is the persisted effect of exactly one ledger mutation.
// Backends must apply it all-or-nothing.
type Changeset struct {
	ID             string
	UserID         string
	Kind           ChangeKind
	CreatedAccount *Account
	StatusChange   *StatusChange
	Added          []Transaction
	Removed        []string
	Balances       []BalanceChange
	At             time.Time
}
