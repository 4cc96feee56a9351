package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// ErrInconsistentLedger is returned when stored balances disagree with transaction history.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match transaction history")

// ReconciliationUseCase checks that balances agree with transaction history.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case.
// ledgerRepo may be nil when the backend offers no persisted check.
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileSnapshot checks every account held in memory.
func (uc *ReconciliationUseCase) ReconcileSnapshot(ledger LedgerReader) ([]*ReconciliationResult, error) {
	data, err := ledger.Snapshot()
	if err != nil {
		return nil, err
	}

	expected := domain.ExpectedBalances(data.Accounts, data.Transactions)
	now := time.Now().UTC()

	results := make([]*ReconciliationResult, 0, len(data.Accounts))
	for i := range data.Accounts {
		account := &data.Accounts[i]
		calculated := expected[account.ID]
		results = append(results, &ReconciliationResult{
			AccountID:         account.ID,
			RecordedBalance:   account.Balance,
			CalculatedBalance: calculated,
			Difference:        account.Balance.Sub(calculated),
			IsReconciled:      account.Balance.Equal(calculated),
			LastChecked:       now,
		})
	}

	return results, nil
}

// CheckLedgerConsistency verifies the persisted balances of userID.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context, userID string) error {
	if uc.ledgerRepo == nil {
		return nil
	}

	discrepancies, err := uc.ledgerRepo.CheckConsistency(ctx, userID)
	if err != nil {
		return domain.NewUnavailableError("check ledger consistency", err)
	}

	if len(discrepancies) > 0 {
		d := discrepancies[0]
		return fmt.Errorf(
			"%w: %d persisted account(s) disagree with history, first %s recorded=%s calculated=%s",
			ErrInconsistentLedger,
			len(discrepancies),
			d.AccountID,
			d.RecordedBalance.String(),
			d.CalculatedBalance.String(),
		)
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	UserID             string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	PersistedChecked   bool
	PersistedError     string
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles the in-memory snapshot and the persisted ledger.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context, ledger LedgerReader) (*ReconciliationReport, error) {
	results, err := uc.ReconcileSnapshot(ledger)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		UserID:           ledger.UserID(),
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		PersistedChecked: uc.ledgerRepo != nil,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	persistedErr := uc.CheckLedgerConsistency(ctx, report.UserID)
	if persistedErr != nil {
		report.PersistedError = persistedErr.Error()
	}

	report.LedgerConsistent = len(report.Discrepancies) == 0 && persistedErr == nil

	return report, nil
}
