package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
)

func rowToAccount(row generated.Account) domain.Account {
	return domain.Account{
		ID:             row.ID,
		UserID:         row.UserID,
		Name:           row.Name,
		Type:           domain.AccountType(row.Type),
		OpeningBalance: numericToDecimal(row.OpeningBalance),
		Balance:        numericToDecimal(row.Balance),
		Active:         row.Active,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func rowToTransaction(row generated.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		AccountID:   row.AccountID,
		TransferID:  row.TransferID.String,
		Type:        domain.TransactionType(row.Type),
		Amount:      numericToDecimal(row.Amount),
		Date:        domain.DateOf(row.TxDate.Time),
		Description: row.Description,
		Label:       row.Label,
		CreatedAt:   row.CreatedAt.Time,
	}
}

func transactionParams(t *domain.Transaction) generated.CreateTransactionParams {
	return generated.CreateTransactionParams{
		ID:          t.ID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		TransferID:  pgtype.Text{String: t.TransferID, Valid: t.TransferID != ""},
		Type:        string(t.Type),
		Amount:      decimalToNumeric(t.Amount),
		TxDate:      pgtype.Date{Time: t.Date.Time(), Valid: true},
		Description: t.Description,
		Label:       t.Label,
		CreatedAt:   timeToPgTimestamptz(t.CreatedAt),
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	d := decimal.NewFromBigInt(n.Int, 0)
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
