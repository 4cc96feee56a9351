package dto

import (
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	OpeningBalance string    `json:"opening_balance"`
	Balance        string    `json:"balance"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		OpeningBalance: a.OpeningBalance.String(),
		Balance:        a.Balance.String(),
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i := range accounts {
		result[i] = AccountFromDomain(&accounts[i])
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string      `json:"id"`
	AccountID   string      `json:"account_id"`
	TransferID  string      `json:"transfer_id,omitempty"`
	Type        string      `json:"type"`
	Amount      string      `json:"amount"`
	Date        domain.Date `json:"date"`
	Description string      `json:"description,omitempty"`
	Source      string      `json:"source,omitempty"`
	Category    string      `json:"category,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		TransferID:  t.TransferID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Date:        t.Date,
		Description: t.Description,
		Source:      t.Source(),
		Category:    t.Category(),
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i := range transactions {
		result[i] = TransactionFromDomain(&transactions[i])
	}
	return result
}

// ListTransactionsResponse represents a list of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
}

// DeleteTransactionResponse lists every transaction a delete removed.
type DeleteTransactionResponse struct {
	Removed []string `json:"removed"`
}

// TransferResponse holds both legs of a transfer.
type TransferResponse struct {
	TransferID string               `json:"transfer_id"`
	Debit      *TransactionResponse `json:"debit"`
	Credit     *TransactionResponse `json:"credit"`
}

// TransferFromDomain converts the two legs of a transfer to a response.
func TransferFromDomain(debit, credit *domain.Transaction) *TransferResponse {
	return &TransferResponse{
		TransferID: debit.TransferID,
		Debit:      TransactionFromDomain(debit),
		Credit:     TransactionFromDomain(credit),
	}
}

// MonthResponse is a calendar month bucket.
type MonthResponse struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

// MonthlySeriesResponse holds index-aligned income and expense totals per month.
type MonthlySeriesResponse struct {
	Months  []MonthResponse `json:"months"`
	Income  []string        `json:"income"`
	Expense []string        `json:"expense"`
}

// MonthlySeriesFromDomain converts a monthly series to a response.
func MonthlySeriesFromDomain(s *domain.MonthlySeries) *MonthlySeriesResponse {
	resp := &MonthlySeriesResponse{
		Months:  make([]MonthResponse, len(s.Months)),
		Income:  make([]string, len(s.Income)),
		Expense: make([]string, len(s.Expense)),
	}
	for i, m := range s.Months {
		resp.Months[i] = MonthResponse{Year: m.Year, Month: int(m.Month), Label: m.Label()}
	}
	for i, v := range s.Income {
		resp.Income[i] = v.String()
	}
	for i, v := range s.Expense {
		resp.Expense[i] = v.String()
	}
	return resp
}

// CategoryBreakdownResponse holds index-aligned expense totals per category.
type CategoryBreakdownResponse struct {
	Categories []string `json:"categories"`
	Totals     []string `json:"totals"`
}

// CategoryBreakdownFromDomain converts a category breakdown to a response.
func CategoryBreakdownFromDomain(b *domain.CategoryBreakdown) *CategoryBreakdownResponse {
	resp := &CategoryBreakdownResponse{
		Categories: append(make([]string, 0, len(b.Categories)), b.Categories...),
		Totals:     make([]string, len(b.Totals)),
	}
	for i, v := range b.Totals {
		resp.Totals[i] = v.String()
	}
	return resp
}

// SessionResponse describes the caller's loaded ledger.
type SessionResponse struct {
	UserID       string `json:"user_id"`
	Revision     string `json:"revision"`
	Accounts     int    `json:"accounts"`
	Transactions int    `json:"transactions"`
}

// SessionFromSnapshot summarizes a loaded ledger.
func SessionFromSnapshot(revision string, data *domain.LedgerData) *SessionResponse {
	return &SessionResponse{
		UserID:       data.UserID,
		Revision:     revision,
		Accounts:     len(data.Accounts),
		Transactions: len(data.Transactions),
	}
}

// DiscrepancyResponse describes an account whose balance disagrees with its history.
type DiscrepancyResponse struct {
	AccountID         string `json:"account_id"`
	RecordedBalance   string `json:"recorded_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	Difference        string `json:"difference"`
}

// ReconciliationResponse reports the consistency of the caller's ledger.
type ReconciliationResponse struct {
	Consistent         bool                  `json:"consistent"`
	TotalAccounts      int                   `json:"total_accounts"`
	ReconciledAccounts int                   `json:"reconciled_accounts"`
	Discrepancies      []DiscrepancyResponse `json:"discrepancies"`
	PersistedChecked   bool                  `json:"persisted_checked"`
	PersistedError     string                `json:"persisted_error,omitempty"`
	CheckedAt          time.Time             `json:"checked_at"`
}

// ReconciliationFromReport converts a reconciliation report to a response.
func ReconciliationFromReport(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		Consistent:         r.LedgerConsistent,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]DiscrepancyResponse, 0, len(r.Discrepancies)),
		PersistedChecked:   r.PersistedChecked,
		PersistedError:     r.PersistedError,
		CheckedAt:          r.CheckedAt,
	}
	for _, d := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance.String(),
			CalculatedBalance: d.CalculatedBalance.String(),
			Difference:        d.Difference.String(),
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Rule    string `json:"rule,omitempty"`
}
