package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account. The set is closed.
type AccountType string

const (
	AccountTypeSaving           AccountType = "Saving"
	AccountTypeFixedDeposit     AccountType = "FixedDeposit"
	AccountTypeRecurringDeposit AccountType = "RecurringDeposit"
	AccountTypeCreditCard       AccountType = "CreditCard"
	AccountTypeCash             AccountType = "Cash"
	AccountTypeLoan             AccountType = "Loan"
	AccountTypeInvestment       AccountType = "Investment"
)

// AccountTypes lists every account type in display order.
var AccountTypes = []AccountType{
	AccountTypeSaving,
	AccountTypeFixedDeposit,
	AccountTypeRecurringDeposit,
	AccountTypeCreditCard,
	AccountTypeCash,
	AccountTypeLoan,
	AccountTypeInvestment,
}

// accountTypeAliases accepts the short labels used by older web forms.
var accountTypeAliases = map[string]AccountType{
	"fd":          AccountTypeFixedDeposit,
	"rd":          AccountTypeRecurringDeposit,
	"credit card": AccountTypeCreditCard,
}

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseAccountType resolves a user supplied account type, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	s = strings.TrimSpace(s)
	for _, known := range AccountTypes {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	if alias, ok := accountTypeAliases[strings.ToLower(s)]; ok {
		return alias, nil
	}
	return "", NewValidationError(RuleAccountType, ErrInvalidAccountType)
}

// Account represents a financial account owned by a single user.
type Account struct {
	ID             string
	UserID         string
	Name           string
	Type           AccountType
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Apply returns the balance after t is posted to the account.
func (a *Account) Apply(t *Transaction) decimal.Decimal {
	return a.Balance.Add(t.SignedAmount())
}

// Revert returns the balance after the effect of t is removed from the account.
func (a *Account) Revert(t *Transaction) decimal.Decimal {
	return a.Balance.Sub(t.SignedAmount())
}

// CanCover checks whether the current balance covers a debit of amount.
func (a *Account) CanCover(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return NewValidationError(RuleInsufficientFunds, ErrInsufficientFunds)
	}
	return nil
}
