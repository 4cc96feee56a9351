package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

var accountColumns = []string{"id", "user_id", "name", "type", "opening_balance", "balance", "active", "created_at", "updated_at"}

var transactionColumns = []string{"id", "user_id", "account_id", "transfer_id", "type", "amount", "tx_date", "description", "label", "created_at"}

func num(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func TestLedgerRepositoryLoad(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)
	created := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	ts := timeToPgTimestamptz(created)

	mockPool.ExpectBeginTx(snapshotReadOptions)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("user-1").
		WillReturnRows(mockPool.NewRows(accountColumns).
			AddRow("acc-1", "user-1", "Savings", "Saving", num("100"), num("150.25"), true, ts, ts))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM transactions")).
		WithArgs("user-1").
		WillReturnRows(mockPool.NewRows(transactionColumns).
			AddRow("tx-1", "user-1", "acc-1", pgtype.Text{}, "income", num("50.25"),
				pgtype.Date{Time: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), Valid: true},
				"August pay", "Salary", ts))
	mockPool.ExpectRollback()

	data, err := repo.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(data.Accounts) != 1 || len(data.Transactions) != 1 {
		t.Fatalf("unexpected ledger: %+v", data)
	}

	acc := data.Accounts[0]
	if acc.Type != domain.AccountTypeSaving || !acc.Balance.Equal(decimal.RequireFromString("150.25")) {
		t.Fatalf("unexpected account: %+v", acc)
	}

	txn := data.Transactions[0]
	if txn.TransferID != "" || txn.Source() != "Salary" || txn.Date.String() != "2025-08-15" {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	if err := data.CheckShape(); err != nil {
		t.Fatalf("loaded ledger should be well formed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryLoadQueryError(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)
	queryErr := errors.New("connection reset")

	mockPool.ExpectBeginTx(snapshotReadOptions)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM accounts")).WillReturnError(queryErr)
	mockPool.ExpectRollback()

	if _, err := repo.Load(context.Background(), "user-1"); !errors.Is(err, queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func transferChangeset() *domain.Changeset {
	at := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	day := domain.Date{Year: 2025, Month: 8, Day: 20}

	out := domain.NewExpense("acc-1", decimal.NewFromInt(40), day, domain.CategoryTransferOut, "Transfer to Cash")
	out.ID, out.UserID, out.TransferID, out.CreatedAt = "tx-out", "user-1", "tr-1", at
	in := domain.NewIncome("acc-2", decimal.NewFromInt(40), day, domain.SourceTransferIn, "Transfer from Savings")
	in.ID, in.UserID, in.TransferID, in.CreatedAt = "tx-in", "user-1", "tr-1", at

	return &domain.Changeset{
		ID:     "cs-1",
		UserID: "user-1",
		Kind:   domain.ChangeTransferCompleted,
		Added:  []domain.Transaction{*out, *in},
		Balances: []domain.BalanceChange{
			{AccountID: "acc-1", Balance: decimal.NewFromInt(60)},
			{AccountID: "acc-2", Balance: decimal.NewFromInt(40)},
		},
		At: at,
	}
}

func TestLedgerRepositoryApplyTransfer(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, newOutboxRepository(mockPool))

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("tx-out", "user-1", "acc-1", pgtype.Text{String: "tr-1", Valid: true}, "expense",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "Transfer to Cash", domain.CategoryTransferOut, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("tx-in", "user-1", "acc-2", pgtype.Text{String: "tr-1", Valid: true}, "income",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "Transfer from Savings", domain.SourceTransferIn, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET balance")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs("cs-1", "user-1", "tr-1", domain.AggregateTypeTransfer, string(domain.ChangeTransferCompleted),
			pgxmock.AnyArg(), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	if err := repo.Apply(context.Background(), transferChangeset()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryApplyCreatesAccount(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)
	at := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	cs := &domain.Changeset{
		ID:     "cs-2",
		UserID: "user-1",
		Kind:   domain.ChangeAccountCreated,
		CreatedAccount: &domain.Account{
			ID: "acc-9", UserID: "user-1", Name: "Wallet", Type: domain.AccountTypeCash,
			OpeningBalance: decimal.NewFromInt(25), Balance: decimal.NewFromInt(25),
			Active: true, CreatedAt: at, UpdatedAt: at,
		},
		At: at,
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("acc-9", "user-1", "Wallet", "Cash", pgxmock.AnyArg(), pgxmock.AnyArg(), true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	if err := repo.Apply(context.Background(), cs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryApplyStaleDelete(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)

	cs := &domain.Changeset{
		ID:      "cs-3",
		UserID:  "user-1",
		Kind:    domain.ChangeTransactionDeleted,
		Removed: []string{"tx-out", "tx-in"},
		At:      time.Now().UTC(),
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions")).
		WithArgs("user-1", []string{"tx-out", "tx-in"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectRollback()

	err := repo.Apply(context.Background(), cs)
	if !errors.Is(err, usecase.ErrStaleLedger) {
		t.Fatalf("expected usecase.ErrStaleLedger, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryApplyStatusChangeMissingAccount(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)

	cs := &domain.Changeset{
		ID:           "cs-4",
		UserID:       "user-1",
		Kind:         domain.ChangeAccountStatusChanged,
		StatusChange: &domain.StatusChange{AccountID: "acc-1", Active: false},
		At:           time.Now().UTC(),
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET active")).
		WithArgs("acc-1", "user-1", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	if err := repo.Apply(context.Background(), cs); !errors.Is(err, usecase.ErrStaleLedger) {
		t.Fatalf("expected usecase.ErrStaleLedger, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryCheckConsistency(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newLedgerRepository(mockPool, nil)

	mockPool.ExpectQuery(regexp.QuoteMeta("calculated_balance")).
		WithArgs("user-1").
		WillReturnRows(mockPool.NewRows([]string{"id", "balance", "calculated_balance"}).
			AddRow("acc-2", num("12"), num("10")))

	discrepancies, err := repo.CheckConsistency(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(discrepancies))
	}

	if d := discrepancies[0]; d.AccountID != "acc-2" || !d.Difference().Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected discrepancy: %+v", d)
	}

	assertExpectations(t, mockPool)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "150.25", "-40.5", "1000000.01"} {
		got := numericToDecimal(num(s))
		if !got.Equal(decimal.RequireFromString(s)) {
			t.Fatalf("round trip of %s gave %s", s, got)
		}
	}

	if !numericToDecimal(pgtype.Numeric{}).IsZero() {
		t.Fatalf("expected NULL numeric to convert to zero")
	}
}
