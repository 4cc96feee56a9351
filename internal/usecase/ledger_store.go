package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// ErrLoadSuperseded is returned by Load when a newer Load or Clear started before it finished.
var ErrLoadSuperseded = errors.New("ledger load superseded by a newer request")

// LedgerStore is the single source of truth for one user's accounts and transactions.
//
// Mutations are serialized. Each one is applied to a copy of the current
// snapshot, checked, installed, and then persisted through the backend. If
// persistence fails the previous snapshot is restored, so readers never
// observe a transaction without its balance effect.
type LedgerStore struct {
	backend  LedgerBackend
	idGen    IDGenerator
	retrier  Retrier
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time

	// mu serializes mutations, loads and Clear.
	mu sync.Mutex

	stateMu sync.RWMutex
	state   *ledgerState
	epoch   string
	version uint64

	generation atomic.Uint64
	// persisted counts backend writes, so Load can tell its fetch went stale.
	persisted atomic.Uint64
}

// NewLedgerStore creates an empty, unauthenticated LedgerStore.
func NewLedgerStore(
	backend LedgerBackend,
	idGen IDGenerator,
	retrier Retrier,
	recorder Recorder,
	logger zerolog.Logger,
) *LedgerStore {
	if recorder == nil {
		recorder = NopRecorder{}
	}

	return &LedgerStore{
		backend:  backend,
		idGen:    idGen,
		retrier:  retrier,
		recorder: recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ledgerState is an immutable snapshot once installed.
type ledgerState struct {
	userID       string
	accounts     []domain.Account
	transactions []domain.Transaction
}

func (st *ledgerState) clone() *ledgerState {
	return &ledgerState{
		userID:       st.userID,
		accounts:     append(make([]domain.Account, 0, len(st.accounts)+1), st.accounts...),
		transactions: append(make([]domain.Transaction, 0, len(st.transactions)+2), st.transactions...),
	}
}

func (st *ledgerState) accountIndex(id string) int {
	for i := range st.accounts {
		if st.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *ledgerState) transactionIndex(id string) int {
	for i := range st.transactions {
		if st.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *ledgerState) data() *domain.LedgerData {
	return &domain.LedgerData{
		UserID:       st.userID,
		Accounts:     append([]domain.Account{}, st.accounts...),
		Transactions: append([]domain.Transaction{}, st.transactions...),
	}
}

// Load fetches the ledger of userID and replaces the snapshot with it.
//
// A failed fetch keeps the previous snapshot. A load overtaken by a newer
// Load or Clear discards its result and returns ErrLoadSuperseded. When a
// mutation was persisted while the fetch ran, the ledger is fetched again
// with mutations blocked, so an acknowledged change is never lost.
func (s *LedgerStore) Load(ctx context.Context, userID string) (*domain.LedgerData, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	gen := s.generation.Add(1)
	persisted := s.persisted.Load()

	data, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persisted.Load() != persisted {
		s.logger.Debug().Str("user_id", userID).Msg("ledger changed during load, fetching again")
		if data, err = s.fetch(ctx, userID); err != nil {
			return nil, err
		}
	}

	if s.generation.Load() != gen {
		s.recorder.LedgerLoaded(LoadOutcomeSuperseded)
		return nil, ErrLoadSuperseded
	}

	st := &ledgerState{
		userID:       userID,
		accounts:     append([]domain.Account{}, data.Accounts...),
		transactions: append([]domain.Transaction{}, data.Transactions...),
	}

	s.stateMu.Lock()
	s.state = st
	s.epoch = s.idGen.Generate()
	s.version++
	s.stateMu.Unlock()

	s.recorder.LedgerLoaded(LoadOutcomeOK)
	s.logger.Debug().
		Str("user_id", userID).
		Int("accounts", len(st.accounts)).
		Int("transactions", len(st.transactions)).
		Msg("ledger loaded")

	return st.data(), nil
}

func (s *LedgerStore) fetch(ctx context.Context, userID string) (*domain.LedgerData, error) {
	var data *domain.LedgerData
	err := s.retry(ctx, func() error {
		var loadErr error
		data, loadErr = s.backend.Load(ctx, userID)
		return loadErr
	})
	if err != nil {
		s.recorder.LedgerLoaded(LoadOutcomeUnavailable)
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("ledger load failed, keeping previous snapshot")
		return nil, domain.NewUnavailableError("load ledger", err)
	}

	if data == nil {
		data = &domain.LedgerData{}
	}
	data.UserID = userID

	if err := data.CheckShape(); err != nil {
		s.recorder.LedgerLoaded(LoadOutcomeInvalid)
		s.logger.Error().Err(err).Str("user_id", userID).Msg("stored ledger is malformed")
		return nil, domain.NewUnavailableError("load ledger", err)
	}

	for _, d := range domain.ReconcileBalances(data.Accounts, data.Transactions) {
		s.logger.Warn().
			Str("user_id", userID).
			Str("account_id", d.AccountID).
			Str("recorded", d.RecordedBalance.String()).
			Str("calculated", d.CalculatedBalance.String()).
			Msg("stored balance disagrees with transaction history")
	}

	return data, nil
}

// Clear drops the snapshot and cancels the effect of any in-flight Load.
func (s *LedgerStore) Clear() {
	s.generation.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stateMu.Lock()
	s.state = nil
	s.version++
	s.stateMu.Unlock()
}

func (s *LedgerStore) current() (*ledgerState, error) {
	s.stateMu.RLock()
	st := s.state
	s.stateMu.RUnlock()

	if st == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return st, nil
}

// UserID returns the owner of the current snapshot, or "".
func (s *LedgerStore) UserID() string {
	st, err := s.current()
	if err != nil {
		return ""
	}
	return st.userID
}

// Loaded reports whether a snapshot is held.
func (s *LedgerStore) Loaded() bool {
	_, err := s.current()
	return err == nil
}

// Version increases every time the snapshot changes.
func (s *LedgerStore) Version() uint64 {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.version
}

// Revision identifies the snapshot content across loads.
func (s *LedgerStore) Revision() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return fmt.Sprintf("%s.%d", s.epoch, s.version)
}

// Snapshot returns a copy of the current ledger.
func (s *LedgerStore) Snapshot() (*domain.LedgerData, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return st.data(), nil
}

// Accounts returns a copy of all accounts in creation order.
func (s *LedgerStore) Accounts() ([]domain.Account, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return append([]domain.Account{}, st.accounts...), nil
}

// Account returns a copy of one account.
func (s *LedgerStore) Account(id string) (*domain.Account, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	i := st.accountIndex(id)
	if i < 0 {
		return nil, domain.NewNotFoundError(domain.KindAccount, id)
	}

	account := st.accounts[i]
	return &account, nil
}

// Transaction returns a copy of one transaction.
func (s *LedgerStore) Transaction(id string) (*domain.Transaction, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	i := st.transactionIndex(id)
	if i < 0 {
		return nil, domain.NewNotFoundError(domain.KindTransaction, id)
	}

	t := st.transactions[i]
	return &t, nil
}

// TransactionFilter narrows Transactions. Zero fields match everything.
type TransactionFilter struct {
	Type      domain.TransactionType
	AccountID string
	// Search matches the source or category case-insensitively.
	Search string
	Limit  int
	Offset int
}

func (f TransactionFilter) matches(t *domain.Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.Search != "" {
		label := strings.ToLower(t.Source() + t.Category())
		if !strings.Contains(label, strings.ToLower(strings.TrimSpace(f.Search))) {
			return false
		}
	}
	return true
}

// Transactions returns copies of the matching transactions in insertion order.
func (s *LedgerStore) Transactions(filter TransactionFilter) ([]domain.Transaction, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0)
	skipped := 0
	for i := range st.transactions {
		t := &st.transactions[i]
		if !filter.matches(t) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}

	return out, nil
}

// AddAccountInput represents input for creating an account.
type AddAccountInput struct {
	Name           string
	Type           domain.AccountType
	OpeningBalance decimal.Decimal
}

// AddAccount creates an active account whose balance starts at the opening balance.
func (s *LedgerStore) AddAccount(ctx context.Context, input AddAccountInput) (*domain.Account, error) {
	var created domain.Account

	_, err := s.mutate(ctx, domain.ChangeAccountCreated, func(st *ledgerState, cs *domain.Changeset) error {
		name := strings.TrimSpace(input.Name)
		if err := domain.ValidateAccountName(name); err != nil {
			return err
		}
		if !input.Type.IsValid() {
			return domain.NewValidationError(domain.RuleAccountType, domain.ErrInvalidAccountType)
		}
		if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
			return err
		}

		now := s.now()
		created = domain.Account{
			ID:             s.idGen.Generate(),
			UserID:         st.userID,
			Name:           name,
			Type:           input.Type,
			OpeningBalance: input.OpeningBalance,
			Balance:        input.OpeningBalance,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		st.accounts = append(st.accounts, created)

		account := created
		cs.CreatedAccount = &account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.AccountCreated()
	return &created, nil
}

// SetAccountActive flips the active flag. Balances are never touched.
func (s *LedgerStore) SetAccountActive(ctx context.Context, accountID string, active bool) (*domain.Account, error) {
	var updated domain.Account

	_, err := s.mutate(ctx, domain.ChangeAccountStatusChanged, func(st *ledgerState, cs *domain.Changeset) error {
		i := st.accountIndex(accountID)
		if i < 0 {
			return domain.NewNotFoundError(domain.KindAccount, accountID)
		}

		st.accounts[i].Active = active
		st.accounts[i].UpdatedAt = s.now()
		updated = st.accounts[i]

		cs.StatusChange = &domain.StatusChange{AccountID: accountID, Active: active}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// AddTransactionInput represents input for recording income or an expense.
type AddTransactionInput struct {
	Type        domain.TransactionType
	AccountID   string
	Amount      decimal.Decimal
	Date        domain.Date
	Description string
	Source      string
	Category    string
}

func (in AddTransactionInput) build() *domain.Transaction {
	description := strings.TrimSpace(in.Description)

	switch in.Type {
	case domain.TransactionTypeIncome:
		return domain.NewIncome(in.AccountID, in.Amount, in.Date, strings.TrimSpace(in.Source), description)
	case domain.TransactionTypeExpense:
		return domain.NewExpense(in.AccountID, in.Amount, in.Date, strings.TrimSpace(in.Category), description)
	default:
		return &domain.Transaction{
			Type:        in.Type,
			AccountID:   in.AccountID,
			Amount:      in.Amount,
			Date:        in.Date,
			Description: description,
		}
	}
}

func (in AddTransactionInput) validated() (*domain.Transaction, error) {
	t := in.build()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(t.Description); err != nil {
		return nil, err
	}
	return t, nil
}

// AddTransaction records a transaction and adjusts its account balance in one step.
func (s *LedgerStore) AddTransaction(ctx context.Context, input AddTransactionInput) (*domain.Transaction, error) {
	var recorded domain.Transaction

	_, err := s.mutate(ctx, domain.ChangeTransactionRecorded, func(st *ledgerState, cs *domain.Changeset) error {
		t, err := input.validated()
		if err != nil {
			return err
		}

		i := st.accountIndex(t.AccountID)
		if i < 0 {
			return domain.NewNotFoundError(domain.KindAccount, t.AccountID)
		}

		now := s.now()
		t.ID = s.idGen.Generate()
		t.UserID = st.userID
		t.CreatedAt = now

		st.accounts[i].Balance = st.accounts[i].Apply(t)
		st.accounts[i].UpdatedAt = now
		st.transactions = append(st.transactions, *t)

		recorded = *t
		cs.Added = []domain.Transaction{*t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.TransactionRecorded(recorded.Type)
	return &recorded, nil
}

// TransferInput represents input for moving money between two accounts.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Date          domain.Date
	Description   string
}

// Transfer records an expense leg on the source account and an income leg on
// the destination account. Both legs are applied or neither is.
func (s *LedgerStore) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, *domain.Transaction, error) {
	var debit, credit domain.Transaction

	_, err := s.mutate(ctx, domain.ChangeTransferCompleted, func(st *ledgerState, cs *domain.Changeset) error {
		if input.FromAccountID == "" || input.ToAccountID == "" {
			return domain.NewValidationError(domain.RuleAccountRequired, domain.ErrAccountRequired)
		}

		fi := st.accountIndex(input.FromAccountID)
		if fi < 0 {
			return domain.NewNotFoundError(domain.KindAccount, input.FromAccountID)
		}
		ti := st.accountIndex(input.ToAccountID)
		if ti < 0 {
			return domain.NewNotFoundError(domain.KindAccount, input.ToAccountID)
		}

		if fi == ti {
			return domain.NewValidationError(domain.RuleSameAccount, domain.ErrSameAccount)
		}
		if err := domain.ValidateAmount(input.Amount); err != nil {
			return err
		}
		if input.Date.IsZero() {
			return domain.NewValidationError(domain.RuleDate, domain.ErrInvalidDate)
		}

		description := strings.TrimSpace(input.Description)
		if err := domain.ValidateDescription(description); err != nil {
			return err
		}

		// Checked against the balance before either leg is applied.
		if err := st.accounts[fi].CanCover(input.Amount); err != nil {
			return err
		}

		from, to := &st.accounts[fi], &st.accounts[ti]
		now := s.now()
		transferID := s.idGen.Generate()

		out := domain.NewExpense(from.ID, input.Amount, input.Date, domain.CategoryTransferOut,
			transferDescription("Transfer to", to.Name, description))
		in := domain.NewIncome(to.ID, input.Amount, input.Date, domain.SourceTransferIn,
			transferDescription("Transfer from", from.Name, description))

		for _, leg := range []*domain.Transaction{out, in} {
			leg.ID = s.idGen.Generate()
			leg.UserID = st.userID
			leg.TransferID = transferID
			leg.CreatedAt = now
		}

		from.Balance = from.Apply(out)
		from.UpdatedAt = now
		to.Balance = to.Apply(in)
		to.UpdatedAt = now
		st.transactions = append(st.transactions, *out, *in)

		debit, credit = *out, *in
		cs.Added = []domain.Transaction{*out, *in}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recorder.TransferCompleted()
	return &debit, &credit, nil
}

func transferDescription(prefix, accountName, description string) string {
	text := prefix + " " + accountName
	if description != "" {
		text += " - " + description
	}
	return text
}

// UpdateTransaction replaces a transaction by reversing its effect and applying the new values.
// The id and creation time are kept. Transfer legs cannot be edited.
func (s *LedgerStore) UpdateTransaction(ctx context.Context, id string, input AddTransactionInput) (*domain.Transaction, error) {
	var updated domain.Transaction

	_, err := s.mutate(ctx, domain.ChangeTransactionUpdated, func(st *ledgerState, cs *domain.Changeset) error {
		j := st.transactionIndex(id)
		if j < 0 {
			return domain.NewNotFoundError(domain.KindTransaction, id)
		}

		old := st.transactions[j]
		if old.IsTransferLeg() {
			return domain.NewValidationError(domain.RuleTransferLeg, domain.ErrTransferLegImmutable)
		}

		t, err := input.validated()
		if err != nil {
			return err
		}

		ni := st.accountIndex(t.AccountID)
		if ni < 0 {
			return domain.NewNotFoundError(domain.KindAccount, t.AccountID)
		}
		oi := st.accountIndex(old.AccountID)
		if oi < 0 {
			return fmt.Errorf("%w: transaction %q references missing account %q",
				domain.ErrInvariantViolation, old.ID, old.AccountID)
		}

		now := s.now()
		st.accounts[oi].Balance = st.accounts[oi].Revert(&old)
		st.accounts[oi].UpdatedAt = now
		st.accounts[ni].Balance = st.accounts[ni].Apply(t)
		st.accounts[ni].UpdatedAt = now

		t.ID = old.ID
		t.UserID = old.UserID
		t.CreatedAt = old.CreatedAt
		st.transactions[j] = *t

		updated = *t
		cs.Removed = []string{old.ID}
		cs.Added = []domain.Transaction{*t}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deleting either leg of a transfer removes both. It returns the removed ids.
func (s *LedgerStore) DeleteTransaction(ctx context.Context, id string) ([]string, error) {
	var removed []string

	_, err := s.mutate(ctx, domain.ChangeTransactionDeleted, func(st *ledgerState, cs *domain.Changeset) error {
		j := st.transactionIndex(id)
		if j < 0 {
			return domain.NewNotFoundError(domain.KindTransaction, id)
		}

		target := st.transactions[j]
		now := s.now()
		kept := st.transactions[:0:0]

		for i := range st.transactions {
			t := &st.transactions[i]
			same := t.ID == target.ID || (target.IsTransferLeg() && t.TransferID == target.TransferID)
			if !same {
				kept = append(kept, *t)
				continue
			}

			ai := st.accountIndex(t.AccountID)
			if ai < 0 {
				return fmt.Errorf("%w: transaction %q references missing account %q",
					domain.ErrInvariantViolation, t.ID, t.AccountID)
			}
			st.accounts[ai].Balance = st.accounts[ai].Revert(t)
			st.accounts[ai].UpdatedAt = now
			removed = append(removed, t.ID)
		}

		st.transactions = kept
		cs.Removed = removed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

type mutation func(st *ledgerState, cs *domain.Changeset) error

func (s *LedgerStore) mutate(ctx context.Context, kind domain.ChangeKind, apply mutation) (*domain.Changeset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.current()
	if err != nil {
		return nil, err
	}

	next := prev.clone()
	cs := &domain.Changeset{UserID: prev.userID, Kind: kind}

	if err := s.safeApply(next, cs, apply); err != nil {
		if rule := domain.RuleOf(err); rule != "" {
			s.recorder.MutationRejected(rule)
		}
		return nil, err
	}

	balances, err := verifyMutation(prev, next, cs)
	if err != nil {
		s.logger.Error().Err(err).Str("change", string(kind)).Str("user_id", prev.userID).Msg("mutation discarded")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
	}

	cs.ID = s.idGen.Generate()
	cs.Balances = balances
	cs.At = s.now()

	s.install(next)

	err = s.retry(ctx, func() error {
		return s.backend.Apply(ctx, cs)
	})
	// Counted on failure too: a commit whose acknowledgement was lost may still be stored.
	s.persisted.Add(1)
	if err != nil {
		s.install(prev)
		s.recorder.PersistenceRolledBack(string(kind))
		s.logger.Warn().Err(err).
			Str("change", string(kind)).
			Str("changeset_id", cs.ID).
			Str("user_id", prev.userID).
			Msg("persist failed, mutation rolled back")
		return nil, domain.NewUnavailableError("persist "+string(kind), err)
	}

	return cs, nil
}

func (s *LedgerStore) safeApply(st *ledgerState, cs *domain.Changeset, apply mutation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("change", string(cs.Kind)).Msg("mutation panicked")
			err = fmt.Errorf("%w: %v", domain.ErrInvariantViolation, r)
		}
	}()

	return apply(st, cs)
}

func (s *LedgerStore) install(st *ledgerState) {
	s.stateMu.Lock()
	s.state = st
	s.version++
	s.stateMu.Unlock()
}

func (s *LedgerStore) retry(ctx context.Context, op func() error) error {
	if s.retrier == nil {
		return op()
	}
	return s.retrier.Retry(ctx, op)
}

// verifyMutation checks that every balance moved by exactly the net effect of
// the added and removed transactions, and returns the balances that changed.
func verifyMutation(prev, next *ledgerState, cs *domain.Changeset) ([]domain.BalanceChange, error) {
	delta := make(map[string]decimal.Decimal)

	for i := range cs.Added {
		t := &cs.Added[i]
		if next.accountIndex(t.AccountID) < 0 {
			return nil, fmt.Errorf("transaction %q references unknown account %q", t.ID, t.AccountID)
		}
		delta[t.AccountID] = delta[t.AccountID].Add(t.SignedAmount())
	}
	for _, id := range cs.Removed {
		j := prev.transactionIndex(id)
		if j < 0 {
			return nil, fmt.Errorf("removed transaction %q was not in the ledger", id)
		}
		t := &prev.transactions[j]
		delta[t.AccountID] = delta[t.AccountID].Sub(t.SignedAmount())
	}

	if want := len(prev.transactions) + len(cs.Added) - len(cs.Removed); len(next.transactions) != want {
		return nil, fmt.Errorf("expected %d transactions, found %d", want, len(next.transactions))
	}

	for i := range next.accounts {
		a := &next.accounts[i]
		want := a.OpeningBalance
		if j := prev.accountIndex(a.ID); j >= 0 {
			want = prev.accounts[j].Balance
		}
		want = want.Add(delta[a.ID])

		if !a.Balance.Equal(want) {
			return nil, fmt.Errorf("account %q balance is %s, expected %s", a.ID, a.Balance, want)
		}
	}

	ids := make([]string, 0, len(delta))
	for id := range delta {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	balances := make([]domain.BalanceChange, 0, len(ids))
	for _, id := range ids {
		balances = append(balances, domain.BalanceChange{
			AccountID: id,
			Balance:   next.accounts[next.accountIndex(id)].Balance,
		})
	}

	return balances, nil
}
