package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/iho/fintrack/internal/domain"
)

// StoreFactory builds an empty LedgerStore for a new session.
type StoreFactory func() *LedgerStore

type session struct {
	store    *LedgerStore
	lastUsed time.Time
}

// SessionManager owns one LedgerStore per signed-in user.
//
// A store is created and loaded on first use, reloaded by Open, and torn
// down by Close. Concurrent first requests for the same user share a single
// load, so nobody sees a half-initialized ledger.
type SessionManager struct {
	newStore    StoreFactory
	loadTimeout time.Duration
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	loads    singleflight.Group
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(newStore StoreFactory, loadTimeout time.Duration, logger zerolog.Logger) *SessionManager {
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}

	return &SessionManager{
		newStore:    newStore,
		loadTimeout: loadTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

// Acquire returns the loaded store of identity, loading it if needed.
func (m *SessionManager) Acquire(ctx context.Context, identity domain.Identity) (*LedgerStore, error) {
	if identity.IsZero() {
		return nil, domain.ErrNotAuthenticated
	}

	if store := m.lookup(identity.UserID); store != nil {
		return store, nil
	}

	return m.load(ctx, identity.UserID, false)
}

// Open (re)loads the ledger of identity from the backend.
func (m *SessionManager) Open(ctx context.Context, identity domain.Identity) (*LedgerStore, error) {
	if identity.IsZero() {
		return nil, domain.ErrNotAuthenticated
	}

	return m.load(ctx, identity.UserID, true)
}

// Close tears down the session of userID. It reports whether one existed.
func (m *SessionManager) Close(userID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		sess.store.Clear()
		m.logger.Info().Str("user_id", userID).Msg("session closed")
	}

	return ok
}

// EvictIdle closes sessions unused for longer than ttl and returns how many were closed.
func (m *SessionManager) EvictIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	var idle []*session
	for userID, sess := range m.sessions {
		if sess.lastUsed.Before(cutoff) {
			idle = append(idle, sess)
			delete(m.sessions, userID)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.store.Clear()
	}

	if len(idle) > 0 {
		m.logger.Info().Int("count", len(idle)).Msg("evicted idle sessions")
	}

	return len(idle)
}

// Len returns the number of open sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunEvictor closes idle sessions every interval until ctx is done.
func (m *SessionManager) RunEvictor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(ttl)
		}
	}
}

func (m *SessionManager) lookup(userID string) *LedgerStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok || !sess.store.Loaded() {
		return nil
	}

	sess.lastUsed = m.now()
	return sess.store
}

func (m *SessionManager) load(ctx context.Context, userID string, reload bool) (*LedgerStore, error) {
	key := userID
	if reload {
		key = "reload:" + userID
	}

	v, err, _ := m.loads.Do(key, func() (any, error) {
		if !reload {
			if store := m.lookup(userID); store != nil {
				return store, nil
			}
		}

		m.mu.Lock()
		sess, ok := m.sessions[userID]
		m.mu.Unlock()

		var store *LedgerStore
		if ok {
			store = sess.store
		} else {
			store = m.newStore()
		}

		// Detached from ctx: the load is shared by every waiter.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.loadTimeout)
		defer cancel()

		if _, err := store.Load(loadCtx, userID); err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[userID] = &session{store: store, lastUsed: m.now()}
		m.mu.Unlock()

		m.logger.Info().Str("user_id", userID).Bool("reload", reload).Msg("session opened")
		return store, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*LedgerStore), nil
}
