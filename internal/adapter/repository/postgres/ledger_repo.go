package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/postgres/generated"
	"github.com/iho/fintrack/internal/usecase"
)

type queryPool interface {
	generated.DBTX
	pgxPool
}

// LedgerRepository implements usecase.LedgerBackend and usecase.LedgerRepository.
type LedgerRepository struct {
	queries   *generated.Queries
	txManager *TxManager
	outbox    usecase.OutboxRepository
}

// NewLedgerRepository creates a new LedgerRepository. Events are written to outbox
// in the same transaction as the change they describe.
func NewLedgerRepository(pool *pgxpool.Pool, outbox usecase.OutboxRepository) *LedgerRepository {
	return newLedgerRepository(pool, outbox)
}

func newLedgerRepository(pool queryPool, outbox usecase.OutboxRepository) *LedgerRepository {
	if outbox == nil {
		outbox = NewNullOutboxRepository()
	}

	return &LedgerRepository{
		queries:   generated.New(pool),
		txManager: newTxManagerWithPool(pool),
		outbox:    outbox,
	}
}

// Load reads every account and transaction of userID from one snapshot.
func (r *LedgerRepository) Load(ctx context.Context, userID string) (*domain.LedgerData, error) {
	tx, err := r.txManager.BeginSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger load: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := r.queries.WithTx(tx.PgxTx())

	accountRows, err := q.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	transactionRows, err := q.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	data := &domain.LedgerData{
		UserID:       userID,
		Accounts:     make([]domain.Account, 0, len(accountRows)),
		Transactions: make([]domain.Transaction, 0, len(transactionRows)),
	}
	for _, row := range accountRows {
		data.Accounts = append(data.Accounts, rowToAccount(row))
	}
	for _, row := range transactionRows {
		data.Transactions = append(data.Transactions, rowToTransaction(row))
	}

	return data, nil
}

// Apply persists cs and its outbox event in one transaction.
func (r *LedgerRepository) Apply(ctx context.Context, cs *domain.Changeset) error {
	tx, err := r.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := r.queries.WithTx(tx.(*Tx).PgxTx())
	at := timeToPgTimestamptz(cs.At)

	if a := cs.CreatedAccount; a != nil {
		err := q.CreateAccount(ctx, generated.CreateAccountParams{
			ID:             a.ID,
			UserID:         cs.UserID,
			Name:           a.Name,
			Type:           string(a.Type),
			OpeningBalance: decimalToNumeric(a.OpeningBalance),
			Balance:        decimalToNumeric(a.Balance),
			Active:         a.Active,
			CreatedAt:      timeToPgTimestamptz(a.CreatedAt),
			UpdatedAt:      timeToPgTimestamptz(a.UpdatedAt),
		})
		if err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}

	if sc := cs.StatusChange; sc != nil {
		n, err := q.UpdateAccountStatus(ctx, generated.UpdateAccountStatusParams{
			ID:        sc.AccountID,
			UserID:    cs.UserID,
			Active:    sc.Active,
			UpdatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("update account %s status: %w", sc.AccountID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: account %s", usecase.ErrStaleLedger, sc.AccountID)
		}
	}

	if len(cs.Removed) > 0 {
		n, err := q.DeleteTransactions(ctx, generated.DeleteTransactionsParams{
			UserID: cs.UserID,
			Ids:    cs.Removed,
		})
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if n != int64(len(cs.Removed)) {
			return fmt.Errorf("%w: deleted %d of %d transactions", usecase.ErrStaleLedger, n, len(cs.Removed))
		}
	}

	for i := range cs.Added {
		t := &cs.Added[i]
		if err := q.CreateTransaction(ctx, transactionParams(t)); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	for _, b := range cs.Balances {
		n, err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
			ID:        b.AccountID,
			UserID:    cs.UserID,
			Balance:   decimalToNumeric(b.Balance),
			UpdatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("update account %s balance: %w", b.AccountID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: account %s", usecase.ErrStaleLedger, b.AccountID)
		}
	}

	if err := r.outbox.Create(ctx, tx, domain.EventFromChangeset(cs)); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}

	return tx.Commit(ctx)
}

// CheckConsistency returns the persisted accounts of userID whose balance disagrees
// with opening balance plus transaction history.
func (r *LedgerRepository) CheckConsistency(ctx context.Context, userID string) ([]domain.BalanceDiscrepancy, error) {
	rows, err := r.queries.CheckLedgerConsistency(ctx, userID)
	if err != nil {
		return nil, err
	}

	discrepancies := make([]domain.BalanceDiscrepancy, 0, len(rows))
	for _, row := range rows {
		discrepancies = append(discrepancies, domain.BalanceDiscrepancy{
			AccountID:         row.ID,
			RecordedBalance:   numericToDecimal(row.Balance),
			CalculatedBalance: numericToDecimal(row.CalculatedBalance),
		})
	}

	return discrepancies, nil
}
