package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/fintrack/internal/domain"
)

var (
	// ErrCacheMiss is returned by Cache.Get when the key is absent.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleLedger is returned by LedgerBackend.Apply when a changeset targets rows
	// that are no longer stored, typically because another session changed them first.
	ErrStaleLedger = errors.New("stored ledger diverged from session")
)

// LedgerBackend persists users' ledgers.
type LedgerBackend interface {
	// Load returns the stored ledger of userID. An unknown user yields an empty ledger.
	Load(ctx context.Context, userID string) (*domain.LedgerData, error)
	// Apply stores the effect of one mutation all-or-nothing.
	Apply(ctx context.Context, cs *domain.Changeset) error
}

// LedgerRepository defines ledger-wide checks run against persisted data.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context, userID string) ([]domain.BalanceDiscrepancy, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation that failed with a transient error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Recorder receives ledger activity for instrumentation.
type Recorder interface {
	AccountCreated()
	TransactionRecorded(kind domain.TransactionType)
	TransferCompleted()
	MutationRejected(rule string)
	PersistenceRolledBack(op string)
	LedgerLoaded(outcome string)
}

// LedgerReader is the read side of a user's ledger.
type LedgerReader interface {
	UserID() string
	Revision() string
	Snapshot() (*domain.LedgerData, error)
}

// NopRecorder discards all activity.
type NopRecorder struct{}

func (NopRecorder) AccountCreated()                           {}
func (NopRecorder) TransactionRecorded(domain.TransactionType) {}
func (NopRecorder) TransferCompleted()                        {}
func (NopRecorder) MutationRejected(string)                   {}
func (NopRecorder) PersistenceRolledBack(string)              {}
func (NopRecorder) LedgerLoaded(string)                       {}
