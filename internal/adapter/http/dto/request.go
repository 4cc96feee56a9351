package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	OpeningBalance string `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.AddAccountInput, error) {
	accountType, err := domain.ParseAccountType(r.Type)
	if err != nil {
		return usecase.AddAccountInput{}, err
	}

	opening := decimal.Zero
	if strings.TrimSpace(r.OpeningBalance) != "" {
		opening, err = parseAmount(r.OpeningBalance, domain.RuleOpeningBalance)
		if err != nil {
			return usecase.AddAccountInput{}, err
		}
	}

	return usecase.AddAccountInput{
		Name:           r.Name,
		Type:           accountType,
		OpeningBalance: opening,
	}, nil
}

// UpdateAccountStatusRequest activates or deactivates an account.
type UpdateAccountStatusRequest struct {
	Active *bool `json:"active"`
}

// TransactionRequest represents a request to record or replace an income or expense.
type TransactionRequest struct {
	Type        string      `json:"type"`
	AccountID   string      `json:"account_id"`
	Amount      string      `json:"amount"`
	Date        domain.Date `json:"date"`
	Description string      `json:"description,omitempty"`
	Source      string      `json:"source,omitempty"`
	Category    string      `json:"category,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransactionRequest) ToUseCaseInput() (usecase.AddTransactionInput, error) {
	txType, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return usecase.AddTransactionInput{}, err
	}

	amount, err := parseAmount(r.Amount, domain.RuleAmount)
	if err != nil {
		return usecase.AddTransactionInput{}, err
	}

	return usecase.AddTransactionInput{
		Type:        txType,
		AccountID:   r.AccountID,
		Amount:      amount,
		Date:        r.Date,
		Description: r.Description,
		Source:      r.Source,
		Category:    r.Category,
	}, nil
}

// CreateTransferRequest represents a request to create a transfer.
type CreateTransferRequest struct {
	FromAccountID string      `json:"from_account_id"`
	ToAccountID   string      `json:"to_account_id"`
	Amount        string      `json:"amount"`
	Date          domain.Date `json:"date"`
	Description   string      `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.TransferInput, error) {
	amount, err := parseAmount(r.Amount, domain.RuleAmount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
		Date:          r.Date,
		Description:   r.Description,
	}, nil
}

// parseAmount parses a decimal string, reporting failures as a violation of rule.
func parseAmount(s, rule string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, domain.NewValidationError(rule, fmt.Errorf("invalid decimal %q", s))
	}
	return amount, nil
}
