package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

type countingBackend struct {
	*fakeBackend
	loads atomic.Int32
	gate  chan struct{}
}

func (b *countingBackend) Load(ctx context.Context, userID string) (*domain.LedgerData, error) {
	b.loads.Add(1)
	if b.gate != nil {
		<-b.gate
	}
	return b.fakeBackend.Load(ctx, userID)
}

func newSessionManager(backend usecase.LedgerBackend) *usecase.SessionManager {
	return usecase.NewSessionManager(func() *usecase.LedgerStore {
		return usecase.NewLedgerStore(backend, &seqIDs{}, nil, nil, zerolog.Nop())
	}, time.Second, zerolog.Nop())
}

func TestSessionManager_AcquireRequiresIdentity(t *testing.T) {
	manager := newSessionManager(newFakeBackend())

	_, err := manager.Acquire(context.Background(), domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Zero(t, manager.Len())
}

func TestSessionManager_AcquireLoadsOnce(t *testing.T) {
	backend := &countingBackend{
		fakeBackend: newFakeBackend(&domain.LedgerData{UserID: "user-1", Accounts: []domain.Account{account("1", "Savings", 10)}}),
		gate:        make(chan struct{}),
	}
	manager := newSessionManager(backend)
	identity := domain.Identity{UserID: "user-1"}

	var wg sync.WaitGroup
	stores := make([]*usecase.LedgerStore, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := manager.Acquire(context.Background(), identity)
			assert.NoError(t, err)
			stores[i] = store
		}(i)
	}

	// Let every caller reach the shared load before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(backend.gate)
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	assert.Equal(t, int32(1), backend.loads.Load())
	assert.Equal(t, 1, manager.Len())

	again, err := manager.Acquire(context.Background(), identity)
	require.NoError(t, err)
	assert.Same(t, stores[0], again)
	assert.Equal(t, int32(1), backend.loads.Load())
}

func TestSessionManager_FailedLoadIsNotCached(t *testing.T) {
	backend := newFakeBackend()
	backend.loadErr = errors.New("database down")
	manager := newSessionManager(backend)
	identity := domain.Identity{UserID: "user-1"}

	_, err := manager.Acquire(context.Background(), identity)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Zero(t, manager.Len())

	backend.loadErr = nil
	store, err := manager.Acquire(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, "user-1", store.UserID())
}

func TestSessionManager_UsersAreIsolated(t *testing.T) {
	backend := newFakeBackend(
		&domain.LedgerData{UserID: "alice", Accounts: []domain.Account{account("a", "Alice", 1)}},
		&domain.LedgerData{UserID: "bob", Accounts: []domain.Account{account("b", "Bob", 2)}},
	)
	manager := newSessionManager(backend)

	alice, err := manager.Acquire(context.Background(), domain.Identity{UserID: "alice"})
	require.NoError(t, err)
	bob, err := manager.Acquire(context.Background(), domain.Identity{UserID: "bob"})
	require.NoError(t, err)

	assert.NotSame(t, alice, bob)
	_, err = alice.Account("b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = bob.Account("b")
	assert.NoError(t, err)
}

func TestSessionManager_OpenReloads(t *testing.T) {
	backend := &countingBackend{fakeBackend: newFakeBackend()}
	manager := newSessionManager(backend)
	identity := domain.Identity{UserID: "user-1"}

	first, err := manager.Open(context.Background(), identity)
	require.NoError(t, err)
	second, err := manager.Open(context.Background(), identity)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(2), backend.loads.Load())
}

func TestSessionManager_CloseClearsStore(t *testing.T) {
	manager := newSessionManager(newFakeBackend())
	store, err := manager.Acquire(context.Background(), domain.Identity{UserID: "user-1"})
	require.NoError(t, err)

	assert.True(t, manager.Close("user-1"))
	assert.False(t, store.Loaded())
	assert.False(t, manager.Close("user-1"))
	assert.Zero(t, manager.Len())
}

func TestSessionManager_EvictIdle(t *testing.T) {
	manager := newSessionManager(newFakeBackend())
	_, err := manager.Acquire(context.Background(), domain.Identity{UserID: "user-1"})
	require.NoError(t, err)

	assert.Zero(t, manager.EvictIdle(time.Hour))
	assert.Equal(t, 1, manager.Len())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, manager.EvictIdle(time.Millisecond))
	assert.Zero(t, manager.Len())
}
