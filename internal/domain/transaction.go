package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed tag of a Transaction.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is income or expense.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ParseTransactionType resolves a user supplied transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", NewValidationError(RuleTransactionType, ErrInvalidTransactionType)
	}
	return t, nil
}

// Well-known classifier labels.
const (
	CategoryUncategorized = "Uncategorized"
	CategoryTransferOut   = "Transfer Out"
	SourceTransferIn      = "Transfer In"
)

// Transaction is a single income or expense posted to one account.
//
// Label holds the source for income and the category for expense, so the
// type-dependent classifier is always present. Use Source and Category to read it.
type Transaction struct {
	ID          string
	UserID      string
	AccountID   string
	TransferID  string
	Type        TransactionType
	Amount      decimal.Decimal
	Date        Date
	Description string
	Label       string
	CreatedAt   time.Time
}

// NewIncome builds an income transaction.
func NewIncome(accountID string, amount decimal.Decimal, date Date, source, description string) *Transaction {
	return &Transaction{
		AccountID:   accountID,
		Type:        TransactionTypeIncome,
		Amount:      amount,
		Date:        date,
		Label:       source,
		Description: description,
	}
}

// NewExpense builds an expense transaction. An empty category becomes Uncategorized.
func NewExpense(accountID string, amount decimal.Decimal, date Date, category, description string) *Transaction {
	if strings.TrimSpace(category) == "" {
		category = CategoryUncategorized
	}
	return &Transaction{
		AccountID:   accountID,
		Type:        TransactionTypeExpense,
		Amount:      amount,
		Date:        date,
		Label:       category,
		Description: description,
	}
}

// Source returns the income source, or "" for expenses.
func (t *Transaction) Source() string {
	if t.Type != TransactionTypeIncome {
		return ""
	}
	return t.Label
}

// Category returns the expense category, or "" for income.
func (t *Transaction) Category() string {
	if t.Type != TransactionTypeExpense {
		return ""
	}
	if t.Label == "" {
		return CategoryUncategorized
	}
	return t.Label
}

// SignedAmount is the effect of the transaction on its account balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsTransferLeg reports whether t is one half of a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != ""
}

// Validate checks the shape every stored transaction must have.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return NewValidationError(RuleTransactionType, ErrInvalidTransactionType)
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return NewValidationError(RuleDate, ErrInvalidDate)
	}
	if t.AccountID == "" {
		return NewValidationError(RuleAccountRequired, ErrAccountRequired)
	}
	if t.Type == TransactionTypeIncome && strings.TrimSpace(t.Label) == "" {
		return NewValidationError(RuleSourceRequired, ErrSourceRequired)
	}
	return ValidateLabel(t.Label)
}
