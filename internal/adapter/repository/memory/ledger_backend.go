package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// LedgerBackend keeps every user's ledger in process memory.
// It implements usecase.LedgerBackend and usecase.LedgerRepository.
type LedgerBackend struct {
	mu      sync.RWMutex
	ledgers map[string]*domain.LedgerData
	applied []*domain.Changeset
}

// NewLedgerBackend creates an empty backend.
func NewLedgerBackend() *LedgerBackend {
	return &LedgerBackend{ledgers: make(map[string]*domain.LedgerData)}
}

// Seed replaces the stored ledger of data.UserID.
func (b *LedgerBackend) Seed(data *domain.LedgerData) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledgers[data.UserID] = cloneLedger(data)
}

// Load returns a copy of the stored ledger. Unknown users get an empty ledger.
func (b *LedgerBackend) Load(ctx context.Context, userID string) (*domain.LedgerData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.ledgers[userID]
	if !ok {
		return &domain.LedgerData{UserID: userID}, nil
	}
	return cloneLedger(data), nil
}

// Apply stores cs all-or-nothing.
func (b *LedgerBackend) Apply(ctx context.Context, cs *domain.Changeset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	work, ok := b.ledgers[cs.UserID]
	if ok {
		work = cloneLedger(work)
	} else {
		work = &domain.LedgerData{UserID: cs.UserID}
	}

	if err := applyChangeset(work, cs); err != nil {
		return err
	}

	b.ledgers[cs.UserID] = work
	b.applied = append(b.applied, cs)
	return nil
}

// CheckConsistency reports stored accounts whose balance disagrees with history.
func (b *LedgerBackend) CheckConsistency(_ context.Context, userID string) ([]domain.BalanceDiscrepancy, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.ledgers[userID]
	if !ok {
		return nil, nil
	}
	return domain.ReconcileBalances(data.Accounts, data.Transactions), nil
}

// Events returns the outbox events of every applied changeset, oldest first.
func (b *LedgerBackend) Events() []*domain.OutboxEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0, len(b.applied))
	for _, cs := range b.applied {
		events = append(events, domain.EventFromChangeset(cs))
	}
	return events
}

func applyChangeset(data *domain.LedgerData, cs *domain.Changeset) error {
	if a := cs.CreatedAccount; a != nil {
		if accountIndex(data, a.ID) >= 0 {
			return fmt.Errorf("account %s already exists", a.ID)
		}
		data.Accounts = append(data.Accounts, *a)
	}

	if sc := cs.StatusChange; sc != nil {
		i := accountIndex(data, sc.AccountID)
		if i < 0 {
			return fmt.Errorf("%w: account %s", usecase.ErrStaleLedger, sc.AccountID)
		}
		data.Accounts[i].Active = sc.Active
		data.Accounts[i].UpdatedAt = cs.At
	}

	for _, id := range cs.Removed {
		i := slices.IndexFunc(data.Transactions, func(t domain.Transaction) bool { return t.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: transaction %s", usecase.ErrStaleLedger, id)
		}
		data.Transactions = slices.Delete(data.Transactions, i, i+1)
	}

	for i := range cs.Added {
		t := cs.Added[i]
		if slices.ContainsFunc(data.Transactions, func(existing domain.Transaction) bool { return existing.ID == t.ID }) {
			return fmt.Errorf("transaction %s already exists", t.ID)
		}
		data.Transactions = append(data.Transactions, t)
	}

	for _, bc := range cs.Balances {
		i := accountIndex(data, bc.AccountID)
		if i < 0 {
			return fmt.Errorf("%w: account %s", usecase.ErrStaleLedger, bc.AccountID)
		}
		data.Accounts[i].Balance = bc.Balance
		data.Accounts[i].UpdatedAt = cs.At
	}

	return nil
}

func accountIndex(data *domain.LedgerData, id string) int {
	return slices.IndexFunc(data.Accounts, func(a domain.Account) bool { return a.ID == id })
}

func cloneLedger(data *domain.LedgerData) *domain.LedgerData {
	return &domain.LedgerData{
		UserID:       data.UserID,
		Accounts:     slices.Clone(data.Accounts),
		Transactions: slices.Clone(data.Transactions),
	}
}
