package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the idempotency store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// IdempotencyMiddleware replays the first successful response of a POST or PUT
// for every later request carrying the same Idempotency-Key.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A non-positive ttl
// uses usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Keys are private to the caller.
		if identity, ok := IdentityFromContext(r.Context()); ok {
			key = identity.UserID + ":" + key
		}

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Msg("idempotency check failed")
			writeError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			m.replay(w, cached)
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			if err := m.store.Release(r.Context(), key); err != nil {
				m.logger.Warn().Err(err).Msg("failed to release idempotency key")
			}
			return
		}

		stored, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err == nil {
			err = m.store.Update(r.Context(), key, stored, m.ttl)
		}
		if err != nil {
			m.logger.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, cached []byte) {
	if string(cached) == usecase.IdempotencyPending {
		writeError(w, http.StatusConflict, "a request with this idempotency key is in progress")
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(cached, &stored); err != nil || stored.Status == 0 {
		m.logger.Error().Err(err).Msg("unreadable idempotent response")
		writeError(w, http.StatusInternalServerError, "idempotency check failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
